package termbank

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func sequentialKeys() KeyGenerator {
	n := 0
	return KeyFunc(func() string {
		n++
		return fmt.Sprintf("k%d", n)
	})
}

func TestNormalize(t *testing.T) {
	c, ok := Normalize("  提交\t 表单 \n")
	require.True(t, ok)
	require.Equal(t, "提交\t 表单", c.Text)
	require.Equal(t, "提交 表单", c.Match)

	for _, raw := range []string{"", "   ", "hello", "123 !"} {
		_, ok := Normalize(raw)
		require.False(t, ok, raw)
	}
}

func TestEnter_DuplicateTextReusesKey(t *testing.T) {
	b := New(WithKeyGenerator(sequentialKeys()))

	first := b.Enter("你好", "a.ts")
	second := b.Enter("  你好 ", "b.ts")
	third := b.Enter("你好", "")

	require.Equal(t, StateSuccess, first.State)
	require.Equal(t, first.Key, second.Key)
	require.Equal(t, first.Key, third.Key)
	require.Equal(t, 1, b.Len())
}

func TestEnter_Rejections(t *testing.T) {
	b := New()
	b.Enter("保存", "")

	for _, raw := range []string{"", "   ", "hello"} {
		st := b.Enter(raw, "a.ts")
		require.Equal(t, StateEmpty, st.State)
		require.Empty(t, st.Key)
		require.Empty(t, st.Text)
		require.Equal(t, 1, b.Len())
	}
}

func TestEnter_SourceAttribution(t *testing.T) {
	b := New()
	b.Enter("你好", "fileA")
	b.Enter("你好", "fileB")
	b.Enter("你好", "fileA")
	b.Enter("你好", "fileB")

	entries := b.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, []string{"fileA", "fileB"}, entries[0].SourceFiles)
}

func TestEnter_NoSourceFile(t *testing.T) {
	b := New()
	b.Enter("你好", "")
	require.Empty(t, b.Entries()[0].SourceFiles)
}

func TestMerge_KeyStability(t *testing.T) {
	b := New(WithKeyGenerator(sequentialKeys()))
	b.Enter("旧的", "x.ts")

	b.Merge(map[string]string{"k1": "你好"})

	st := b.Enter("你好", "a.ts")
	require.Equal(t, "k1", st.Key)
	_, found := b.Lookup("旧的")
	require.False(t, found)
	require.Equal(t, 1, b.Len())
}

func TestMerge_EmptyClears(t *testing.T) {
	b := New()
	b.Enter("你好", "")
	b.Merge(nil)
	require.Zero(t, b.Len())
	b.Enter("你好", "")
	b.Merge(map[string]string{})
	require.Zero(t, b.Len())
}

func TestMerge_NewKeysAvoidPersistedKeys(t *testing.T) {
	b := New(WithKeyGenerator(sequentialKeys()))
	b.Merge(map[string]string{"k1": "你好", "k2": "世界"})

	st := b.Enter("新的", "")
	require.Equal(t, "k3", st.Key)
}

func TestRoundTrip(t *testing.T) {
	b := New()
	b.Enter("按钮", "a.ts")
	b.Enter("提交", "a.ts")
	exported := b.JSON()

	fresh := New()
	fresh.Merge(exported)
	require.Equal(t, exported, fresh.JSON())
	for _, e := range fresh.Entries() {
		require.Empty(t, e.SourceFiles)
	}
}

func TestEndToEndScenario(t *testing.T) {
	b := New()
	b.Enter("按钮", "a.ts")
	b.Enter("提交", "a.ts")
	b.Enter("按钮", "b.ts")

	require.Equal(t, 2, b.Len())
	e, ok := b.Lookup("按钮")
	require.True(t, ok)
	require.Equal(t, []string{"a.ts", "b.ts"}, e.SourceFiles)
	require.Len(t, b.JSON(), 2)
	require.Len(t, b.EntriesFor("b.ts"), 1)
	require.Len(t, b.EntriesFor("a.ts"), 2)
}

func TestDelete(t *testing.T) {
	b := New()
	st := b.Enter("按钮", "a.ts")
	require.True(t, b.Delete(st.Key))
	require.False(t, b.Delete(st.Key))
	_, ok := b.Lookup("按钮")
	require.False(t, ok)
	require.NotEqual(t, st.Key, b.Enter("按钮", "").Key)
}

func TestDelete_HandsTextToRemainingDuplicate(t *testing.T) {
	b := New()
	b.Merge(map[string]string{"a": "重复", "b": "重复"})
	require.Equal(t, "a", b.Enter("重复", "").Key)

	require.True(t, b.Delete("a"))
	require.Equal(t, "b", b.Enter("重复", "").Key)
}

func TestUniquenessInvariant(t *testing.T) {
	pool := []string{"你好", " 你好", "世界", "按钮", "提交", "取消", "确定 ", "hello", "", "保存\n", "删除"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		b := New()
		for i := 0; i < 200; i++ {
			b.Enter(pool[rng.Intn(len(pool))], fmt.Sprintf("f%d.ts", rng.Intn(5)))
		}
		texts := map[string]bool{}
		keys := map[string]bool{}
		for _, e := range b.Entries() {
			require.False(t, texts[e.Text], "duplicate text %q", e.Text)
			require.False(t, keys[e.Key], "duplicate key %q", e.Key)
			texts[e.Text] = true
			keys[e.Key] = true
		}
	}
}

func TestEnter_Concurrent(t *testing.T) {
	b := New()
	texts := []string{"一", "二", "三", "四", "五"}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Enter(texts[i%len(texts)], fmt.Sprintf("w%d.ts", w))
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, len(texts), b.Len())
	for _, e := range b.Entries() {
		require.Len(t, e.SourceFiles, 8)
	}
}

func TestRandomKeys(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		k := RandomKeys{}.NewKey()
		require.Len(t, k, 16)
		require.False(t, seen[k])
		seen[k] = true
	}
}

func TestEnter_BrokenKeyGeneratorPanics(t *testing.T) {
	b := New(WithKeyGenerator(KeyFunc(func() string { return "same" })))
	require.Equal(t, StateSuccess, b.Enter("你好", "").State)
	require.PanicsWithValue(t, "termbank: key generator returned no unused key in 64 attempts", func() {
		b.Enter("世界", "")
	})

	empty := New(WithKeyGenerator(KeyFunc(func() string { return "" })))
	require.Panics(t, func() { empty.Enter("你好", "") })
}

func TestMarshalJSON(t *testing.T) {
	b := New(WithKeyGenerator(sequentialKeys()))
	b.Enter("你好", "")
	data, err := b.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"k1":"你好"}`, string(data))
}
