package pageops

import (
	"errors"
	"io"
	"testing"
)

func TestRecoverImport(t *testing.T) {
	run := func(v any) (err error) {
		defer recoverImport(&err, 4)
		panic(v)
	}

	err := run(io.ErrUnexpectedEOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error panic: got %v, want it wrapped", err)
	}
	if err := run("bad xref"); err == nil || err.Error() != "pageops: importing page 4: bad xref" {
		t.Errorf("string panic: got %v", err)
	}
}
