package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitorus/svtpades/internal/core"
)

func TestAggregateNoSignatures(t *testing.T) {
	doc := Aggregate(nil)
	assert.Equal(t, core.DocNoSignatures, doc.Status)
	assert.Equal(t, 0, doc.SignatureCount)
}

func TestAggregateAllValid(t *testing.T) {
	doc := Aggregate([]*core.SignatureResult{{Success: true}, {Success: true}})
	assert.Equal(t, core.DocOK, doc.Status)
	assert.Equal(t, 2, doc.ValidCount)
}

func TestAggregateNoneValid(t *testing.T) {
	doc := Aggregate([]*core.SignatureResult{{Success: false}, {Success: false}})
	assert.Equal(t, core.DocNoneValid, doc.Status)
	assert.Equal(t, 0, doc.ValidCount)
}

func TestAggregateSomeInvalid(t *testing.T) {
	doc := Aggregate([]*core.SignatureResult{{Success: true}, {Success: false}})
	assert.Equal(t, core.DocSomeInvalid, doc.Status)
	assert.Equal(t, 1, doc.ValidCount)
	assert.Equal(t, 2, doc.SignatureCount)
}
