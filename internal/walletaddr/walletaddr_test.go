package walletaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AcceptsSystemProgramAddress(t *testing.T) {
	// 32 zero bytes base58-encodes to this well-known address (the System
	// Program id).
	err := Validate("11111111111111111111111111111111")
	assert.NoError(t, err)
}

func TestValidate_RejectsMalformedAddress(t *testing.T) {
	err := Validate("not-a-real-address")
	assert.Error(t, err)
}

func TestValidate_RejectsEmptyAddress(t *testing.T) {
	err := Validate("")
	assert.Error(t, err)
}
