package glossary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticTerms(t *testing.T) {
	s := Static{
		{Chinese: "提交", Lang: "en", Translation: "Submit"},
		{Chinese: "提交", Lang: "jp", Translation: "送信"},
	}
	terms, err := s.Terms(context.Background(), "en")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"提交": "Submit"}, terms)
}

func TestRelevant(t *testing.T) {
	terms := map[string]string{"订单": "Order", "订单号": "Order No.", "用户": "User"}
	got := Relevant(terms, []string{"请输入订单号", "保存"})
	require.Equal(t, []Term{
		{Chinese: "订单号", Translation: "Order No."},
		{Chinese: "订单", Translation: "Order"},
	}, got)
	require.Empty(t, Relevant(terms, []string{"保存"}))
}
