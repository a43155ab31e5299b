package sandbox

import "bytes"

// Collector captures process output in full and exposes a tail-truncated view.
// The full stream is kept internally; only the trailing MaxBytes are reported
// back so feedback sent to the reasoning engine stays bounded.
// It implements io.Writer for use as exec.Cmd stdout/stderr.
type Collector struct {
	buf      bytes.Buffer
	MaxBytes int
}

// NewCollector creates a collector that reports at most maxBytes of trailing
// output.
func NewCollector(maxBytes int) *Collector {
	return &Collector{MaxBytes: maxBytes}
}

// Write implements io.Writer.
func (c *Collector) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

// Tail returns the trailing MaxBytes of collected output and whether anything
// was cut off.
func (c *Collector) Tail() (string, bool) {
	b := c.buf.Bytes()
	if c.MaxBytes <= 0 || len(b) <= c.MaxBytes {
		return string(b), false
	}
	return string(b[len(b)-c.MaxBytes:]), true
}

// Len returns the total number of bytes collected, before truncation.
func (c *Collector) Len() int {
	return c.buf.Len()
}
