package adapter

import "github.com/gowebpki/jcs"

// JCS defines an interface for RFC 8785 JSON canonicalization to enable mocking
type JCS interface {
	Transform(data []byte) ([]byte, error)
}

// RealJCS implements JCS using the gowebpki/jcs package
type RealJCS struct{}

// NewJCS creates a new real JCS implementation
func NewJCS() JCS {
	return &RealJCS{}
}

func (j *RealJCS) Transform(data []byte) ([]byte, error) {
	return jcs.Transform(data)
}
