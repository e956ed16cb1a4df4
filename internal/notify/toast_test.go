package notify

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToaster(t *testing.T) {
	var buf bytes.Buffer
	toaster := NewToaster(&buf)

	toaster.Success("Added to cart")
	toaster.Error("Please login first")
	toaster.Info("Payment cancelled")

	assert.Equal(t, "✓ Added to cart\n✗ Please login first\ni Payment cancelled\n", buf.String())
}

func TestToaster_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	toaster := NewToaster(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			toaster.Error("Failed to load reviews")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 20)
	for _, l := range lines {
		assert.Equal(t, "✗ Failed to load reviews", l)
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{amount: 0, want: "₹0.00"},
		{amount: 299.5, want: "₹299.50"},
		{amount: 1250, want: "₹1,250.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Price(tt.amount))
	}
}
