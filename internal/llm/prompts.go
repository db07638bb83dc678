package llm

// System prompts. The wording tracks what proved reliable against real
// settlement filings; change with care.

// TitleSystemPrompt instructs the model to lift a document title verbatim
// from page-one text.
const TitleSystemPrompt = `you extract the title of legal documents from the text provided, without rephrasing and without using any outside knowledge:

Example of titles include:
 - "PROOF OF GENERAL CLAIM AND RELEASE"
 - "NOTICE OF MOTION AND MOTION FOR (1) FINAL APPROVAL OF CLASS ACTION SETTLEMENT AND APPROVAL OF PLAN OF ALLOCATION; AND (2) AN AWARD OF ATTORNEYS' FEES AND EXPENSES AND AN AWARD TO PLAINTIFF PURSUANT TO 15 U.S.C. §78u-4(a)(4)"
 - "DECLARATION OF JOHN DOE REGARDING NOTICE DISSEMINATION, PUBLICATION, AND REQUESTS FOR EXCLUSION RECEIVED TO DATE"
 - "PLAINTIFF'S STATEMENT OF NON-OPPOSITION IN FURTHER SUPPORT OF MOTIONS FOR: (1) FINAL APPROVAL OF CLASS ACTION SETTLEMENT AND APPROVAL OF PLAN OF ALLOCATION; AND (2) AN AWARD OF ATTORNEYS' FEES AND EXPENSES AND AN AWARD TO PLAINTIFF PURSUANT TO 15 U.S.C. §78u-4(a)(4)"
 - "MEMORANDUM OF LAW IN SUPPORT OF PLAINTIFF'S MOTION FOR FINAL APPROVAL OF CLASS ACTION SETTLEMENT AND APPROVAL OF PLAN OF ALLOCATION"
 - EXHIBIT X
 - ORDER APPROVING SETTLEMENT AND PROVIDING FOR NOTICE
 - STIPULATION AND AGREEMENT OF SETTLEMENT

If no title is provided, return "No title provided"`

// TitleUserPrompt frames the page-one text.
const TitleUserPrompt = "please read the following page of legal document, and extract its title:\n%s"

// NoTitleSentinel is stored when a PDF cannot be parsed at all.
const NoTitleSentinel = "No title provided"

// ExtractionSystemPrompt is the shared system prompt for whole-text
// structured extraction (homepage facts).
const ExtractionSystemPrompt = "You are an expert extraction algorithm. " +
	"Only extract relevant information from the text. " +
	"If you do not know the value of an attribute asked to extract, " +
	"return null for the attribute's value."

// ChunkExtractionSystemPrompt is the variant for retrieval-augmented
// extraction over concatenated chunks.
const ChunkExtractionSystemPrompt = "You are an expert extraction algorithm. " +
	"Only extract relevant information from the following chunks of text. " +
	"If you do not know the value of an attribute asked to extract, " +
	"return null for the attribute's value."

// TableTranscriptionSystemPrompt asks the vision model for a literal table
// transcription.
const TableTranscriptionSystemPrompt = "Output the content of the table provided in the image"

// SummarySystemPrompt is used for direct summaries of one sub-document.
const SummarySystemPrompt = "You are the greatest legal document summarizer in the world.\n" +
	"You summarize legal documents for the general public impacted by class actions"

// ChunkSummarySystemPrompt is used when summarizing disjoint representative
// chunks of a long sub-document.
const ChunkSummarySystemPrompt = "You are the greatest legal document summarizer in the world.\n" +
	"You are provided chunks of a given legal document (separated by three dashes ---) " +
	"and provide summaries for the general public impacted by class actions"

// SummaryUserPrompt frames a sub-document (or its representative chunks) for
// summarization. The case name is interpolated first, the text second.
const SummaryUserPrompt = "Please summarize the following legal document from the settlement against %s. " +
	"First outline the content of the document then, if relevant report any key figures or facts. " +
	"Please focus on information specific to this document, as opposed to information that is general to the whole lawsuit" +
	"\n---\n\n%s"

// Retrieval query strings for the notice extraction targets.
const (
	LegalTeamQuery = "The name of the law firm representing the Class Members and Plaintiffs"
	ADPSQuery      = "The average settlement distribution per damaged share in dollars before any tax deduction, costs, admin fees, etc. (often found in the Class Recovery Statement)"
	FeesQuery      = "Attorney Fees requested by the legal counsel"
)
