package pipeline

// Site is one entry of the input catalog: a settlement website to scrape.
type Site struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Case holds the facts extracted from a settlement homepage.
// Created once per case; never updated thereafter.
type Case struct {
	Case             string  `json:"case"`
	Website          string  `json:"website"`
	SettlementDate   *string `json:"settlement_date"`
	SettlementAmount *int64  `json:"settlement_amount"`
	ClassPeriod      *string `json:"class_period"`
	Allegations      *string `json:"allegations"`
}

// Document is one downloaded PDF, keyed by (case, filename).
type Document struct {
	Case     string `json:"case"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// NoticeInfo holds the three facts extracted from a notice of proposed
// settlement, one row per case.
type NoticeInfo struct {
	Case         string   `json:"case"`
	ADPS         *float64 `json:"adps"`
	LegalTeam    *string  `json:"legal_team"`
	AttorneyFees *float64 `json:"attorney_fees"`
}

// ExpenseLine is one non-total line item of an expense table. The reconciling
// TOTAL row is checked but not persisted.
type ExpenseLine struct {
	Case      string  `json:"case"`
	Filename  string  `json:"filename"`
	Page      int     `json:"page"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	SubAmount float64 `json:"sub_amount"`
}

// Summary is one summary row per sub-document of a source PDF.
type Summary struct {
	Case        string `json:"case"`
	Filename    string `json:"filename"`
	SubDocument string `json:"sub_document"`
	Summary     string `json:"summary"`
}

// IndexEntry is one row of a case folder's index.csv.
type IndexEntry struct {
	Filename string `json:"filename"`
	FullName string `json:"full_name"`
	Link     string `json:"link,omitempty"`
}
