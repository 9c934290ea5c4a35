package svtpades

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/svtpades/internal/core"
)

func TestIsSignedRejectsGarbage(t *testing.T) {
	_, err := IsSigned([]byte("not a pdf at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadPDF)
}

func TestAggregateNoSignatures(t *testing.T) {
	doc := Aggregate(nil)
	assert.Equal(t, core.DocNoSignatures, doc.Status)
}

func TestAggregateDelegatesToInternalAggregator(t *testing.T) {
	results := []*core.SignatureResult{
		{Success: true, Status: core.StatusSuccess},
		{Success: false, Status: core.StatusInvalidSignature},
	}
	doc := Aggregate(results)
	assert.Equal(t, core.DocSomeInvalid, doc.Status)
	assert.Equal(t, 2, doc.SignatureCount)
	assert.Equal(t, 1, doc.ValidCount)
}
