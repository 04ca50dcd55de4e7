package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierFromTopic(t *testing.T) {
	assert.Equal(t, "SRF001", identifierFromTopic("riverwatch/SRF001/readings"))
	assert.Equal(t, "SRF001", identifierFromTopic("riverwatch/SRF001"))
	assert.Equal(t, "", identifierFromTopic("riverwatch"))
	assert.Equal(t, "", identifierFromTopic(""))
}
