package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"trims and folds punctuation", "  My Col (%)", "my_col"},
		{"leading digit gets prefixed", "2024revenue", "_2024revenue"},
		{"accented letters fold to ascii", "Café Über", "cafe_uber"},
		{"already clean", "customer_id", "customer_id"},
		{"only punctuation becomes col", "###", "col"},
		{"empty becomes col", "", "col"},
		{"collapses repeated separators", "a   b---c", "a_b_c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"  My Col (%)", "Café Über", "###", "customer_id", "2024 Revenue!!"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize must be idempotent for %q", in)
	}
}

func TestNormalize_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 100)
	result := Normalize(long)
	assert.LessOrEqual(t, len(result), maxLength)
}

func TestDedup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       []string
		expected []string
	}{
		{"no collisions", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"simple collision run", []string{"x", "x", "x"}, []string{"x", "x_2", "x_3"}},
		{"collision then distinct", []string{"x", "x", "y"}, []string{"x", "x_2", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Dedup(tt.in))
		})
	}
}

func TestDedup_OrderStable(t *testing.T) {
	t.Parallel()

	in := []string{"z", "a", "z", "a", "z"}
	assert.Equal(t, []string{"z", "a", "z_2", "a_2", "z_3"}, Dedup(in))
}

func TestDedup_GeneratedSuffixNeverCollidesWithInput(t *testing.T) {
	t.Parallel()

	// "a_2" already exists in the input before the second "a" is seen;
	// a naive first-occurrence counter would hand out "a_2" again.
	assert.Equal(t, []string{"a", "a_2", "a_3"}, Dedup([]string{"a", "a_2", "a"}))
}

func TestTableName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sales_2024", TableName([]string{"Sales", "2024"}))
	assert.Equal(t, "q1_report", TableName([]string{"Q1 Report"}))
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid("sales_2024"))
	assert.True(t, Valid("customer_id"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("2024revenue"), "leading digit is invalid")
	assert.False(t, Valid("My Table"), "space and uppercase are invalid")
	assert.False(t, Valid("drop table; --"))
	assert.False(t, Valid(strings.Repeat("a", 64)))
}
