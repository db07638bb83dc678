package llm

// One result type per structured-extraction schema. Fields the model cannot
// determine come back null and stay nil pointers; no retry happens here.

// HomepageFacts is the four-field settlement homepage extraction.
type HomepageFacts struct {
	SettlementDate   *string `json:"settlement_date"`
	SettlementAmount *int64  `json:"settlement_amount"`
	ClassPeriod      *string `json:"class_period"`
	Allegations      *string `json:"allegations"`
}

// LegalTeamFact names the law firms representing the class members.
type LegalTeamFact struct {
	LegalTeam *string `json:"legal_team"`
}

// ADPSFact is the average distribution per damaged share in dollars.
type ADPSFact struct {
	ADPS *float64 `json:"adps"`
}

// AttorneyFeesFact is the requested attorney fees as a percentage of the
// settlement fund.
type AttorneyFeesFact struct {
	AttorneyFees *float64 `json:"attorney_fees"`
}

// TranscribedRow is one row of a vision-transcribed expense table.
type TranscribedRow struct {
	Category  *string  `json:"category"`
	Amount    *float64 `json:"amount"`
	SubAmount *float64 `json:"sub_amount"`
}

// ExpenseTranscript is the vision fallback's view of a whole table,
// including the total row at the bottom when present.
type ExpenseTranscript struct {
	Rows []TranscribedRow `json:"rows"`
}
