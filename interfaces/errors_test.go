package interfaces

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	base := errors.New("boom")
	err := E(KindNotFound, "address missing", base)

	assert.Equal(t, KindNotFound, KindOf(err), "KindOf should report the wrapped kind")
	assert.True(t, IsKind(err, KindNotFound), "IsKind should match the wrapped kind")
	assert.False(t, IsKind(err, KindValidation), "IsKind should not match other kinds")
	assert.ErrorIs(t, err, base, "Unwrap should expose the cause")
	assert.Contains(t, err.Error(), "address missing", "Error text should carry the message")
}

func TestKindOf_WrappedAndUnclassified(t *testing.T) {
	err := E(KindDecryption, "unseal failed", nil)
	wrapped := fmt.Errorf("while signing: %w", err)
	assert.Equal(t, KindDecryption, KindOf(wrapped), "KindOf should see through fmt.Errorf wrapping")

	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")), "Unclassified errors should have no kind")
	assert.Equal(t, ErrorKind(""), KindOf(nil), "Nil should have no kind")
}
