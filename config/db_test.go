package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://admin:***@db:27017/?authSource=admin",
		maskMongoURI("mongodb://admin:s3cret@db:27017/?authSource=admin"))
	assert.Equal(t, "mongodb://localhost:27017", maskMongoURI("mongodb://localhost:27017"))
	assert.Equal(t, "mongodb://user@db", maskMongoURI("mongodb://user@db"))
}
