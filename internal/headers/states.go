package headers

type parserState int

const (
	eLineStart parserState = iota + 1
	eKey
	eWhitespace
	eValue
	eValueCR
	eBlankCR
)
