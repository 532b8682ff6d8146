package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "PHP 500.00", Format("PHP ", 50000))
	assert.Equal(t, "PHP 0.05", Format("PHP ", 5))
	assert.Equal(t, "PHP 1234.50", Format("PHP ", 123450))
	assert.Equal(t, "PHP 0.00", Format("PHP ", 0))
	assert.Equal(t, "PHP -12.34", Format("PHP ", -1234))
	assert.Equal(t, "$10.00", Format("$", 1000))
}
