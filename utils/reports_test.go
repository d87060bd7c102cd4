package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "2021-10-14.txt", ReportFileName("2021-10-14", ".txt"))
	assert.Equal(t, ".txt", ReportFileName("", ".txt"))
}

func TestReportDate(t *testing.T) {
	date, ok := ReportDate("10-14-21.txt", ".txt")
	assert.True(t, ok)
	assert.Equal(t, "10-14-21", date)

	_, ok = ReportDate("10-14-21.csv", ".txt")
	assert.False(t, ok)
}
