package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierFormats(t *testing.T) {
	assert.True(t, ValidCURP("goma800101hdfrrn09"))
	assert.False(t, ValidCURP("GOMA800101"))
	assert.True(t, ValidRFC("GOMA800101AB1"))
	assert.True(t, ValidRFC("ABC010203XY9"))
	assert.False(t, ValidRFC("AB0102"))
	assert.True(t, ValidNSS("12345678901"))
	assert.False(t, ValidNSS("1234567890A"))
	assert.True(t, ValidEmail("ana@example.com"))
	assert.False(t, ValidEmail("ana@"))
	assert.True(t, ValidRiskClass("iii"))
	assert.False(t, ValidRiskClass("VI"))
	assert.True(t, ValidStateCode("cdmx"))
	assert.True(t, ValidModule(ModulePayroll))
	assert.False(t, ValidModule("gdpr"))
}
