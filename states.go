package multipart

type parserState int

const (
	ePreamble parserState = iota + 1
	eBoundaryEnd
	eBoundaryCR
	eBoundaryDash
	eHeaders
	eBody
	eEpilogue
	eDone
	eError
)
