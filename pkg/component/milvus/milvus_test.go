package milvus

import "testing"

func TestIDInExpr(t *testing.T) {
	cases := []struct {
		ids  []string
		want string
	}{
		{[]string{"a"}, `id in ["a"]`},
		{[]string{"a", "b"}, `id in ["a", "b"]`},
		{[]string{`x"y`}, `id in ["x\"y"]`},
		{nil, `id in []`},
	}
	for _, c := range cases {
		if got := idInExpr(c.ids); got != c.want {
			t.Errorf("idInExpr(%v) = %s, want %s", c.ids, got, c.want)
		}
	}
}

func TestFetchBatchSize(t *testing.T) {
	// id 查询按 1000 个一批切分
	if fetchBatchSize != 1000 {
		t.Errorf("fetchBatchSize = %d, want 1000", fetchBatchSize)
	}
}
