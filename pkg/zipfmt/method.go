package zipfmt

import "strconv"

// Method is a ZIP compression method code.
type Method uint16

const (
	Store   Method = 0
	Deflate Method = 8
)

// Kind is the closed set of compression methods this package knows how to
// handle.
type Kind int

const (
	KindUnsupported Kind = iota
	KindStored
	KindDeflate
)

// Kind classifies the method.
func (m Method) Kind() Kind {
	switch m {
	case Store:
		return KindStored
	case Deflate:
		return KindDeflate
	default:
		return KindUnsupported
	}
}

func (m Method) String() string {
	switch m.Kind() {
	case KindStored:
		return "store"
	case KindDeflate:
		return "deflate"
	default:
		return "method(" + strconv.Itoa(int(m)) + ")"
	}
}
