package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nocdesk/nocdesk/internal/app"
	_ "github.com/nocdesk/nocdesk/internal/testing/guard"
)

func TestMainReturnsInTestMode(t *testing.T) {
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
