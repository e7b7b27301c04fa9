package contextualize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleStage(next func()) func() {
	return next
}

type sampleStages struct{}

func (sampleStages) Run(next func()) func() { return next }

func (*sampleStages) Audit(next func()) func() { return next }

func genericStage[T any](v T) T { return v }

func TestHandlerName(t *testing.T) {
	t.Parallel()

	local := 1
	closure := func() int { return local }

	tests := []struct {
		name string
		fn   any
		want string
	}{
		{name: "top-level func", fn: sampleStage, want: "sampleStage"},
		{name: "value method", fn: sampleStages{}.Run, want: "Run"},
		{name: "pointer method", fn: (&sampleStages{}).Audit, want: "Audit"},
		{name: "method expression", fn: sampleStages.Run, want: "Run"},
		{name: "generic func", fn: genericStage[int], want: "genericStage"},
		{name: "closure", fn: closure, want: ""},
		{name: "not a func", fn: 42, want: ""},
		{name: "nil func", fn: (func())(nil), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, handlerName(tt.fn))
		})
	}
}

func TestIsClosureName(t *testing.T) {
	t.Parallel()

	assert.True(t, isClosureName(""))
	assert.True(t, isClosureName("func1"))
	assert.True(t, isClosureName("func12"))
	assert.True(t, isClosureName("2"))
	assert.False(t, isClosureName("func"))
	assert.False(t, isClosureName("funcy"))
	assert.False(t, isClosureName("auth"))
}

func TestClosureIdentity(t *testing.T) {
	t.Parallel()

	factory := func(n int) func() int {
		return func() int { return n }
	}
	a, b := factory(1), factory(2)

	ka, err := identityOf(a)
	assert.NoError(t, err)
	kb, err := identityOf(b)
	assert.NoError(t, err)
	again, err := identityOf(a)
	assert.NoError(t, err)

	assert.NotEqual(t, ka, kb, "closures of one literal are distinct")
	assert.Equal(t, ka, again)
}
