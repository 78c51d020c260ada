package styles_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annelo/go-nameplates/internal/styles"
)

func TestResolveTier_Ranges(t *testing.T) {
	reg := styles.DefaultRegistry()

	assert.Equal(t, "Novice", reg.ResolveTier(1).Title)
	assert.Equal(t, "Novice", reg.ResolveTier(9).Title)
	assert.Equal(t, "Adept", reg.ResolveTier(10).Title)
	assert.Equal(t, "Expert", reg.ResolveTier(25).Title)
	assert.Equal(t, "Master", reg.ResolveTier(250).Title)

	// Уровень вне всех диапазонов откатывается к первому тиру
	assert.Equal(t, "Novice", reg.ResolveTier(999).Title)
	assert.Equal(t, "Novice", reg.ResolveTier(0).Title)
}

func TestResolveTier_EmptyRegistry(t *testing.T) {
	reg := &styles.Registry{}
	tier := reg.ResolveTier(10)
	assert.Equal(t, "Unknown", tier.Title, "пустой реестр должен давать запасной тир")
}

func TestMatchTitle_CaseInsensitive(t *testing.T) {
	reg := styles.DefaultRegistry()

	st, ok := reg.MatchTitle("Wandering Merchant")
	assert.True(t, ok)
	assert.Equal(t, "Торговец", st.Title)

	_, ok = reg.MatchTitle("Random Bandit")
	assert.False(t, ok, "имя без ключевых слов не должно давать титула")
}

func TestMatchTitle_PriorityOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	body := `special_titles:
  - keyword: guard
    title: Low
    priority: 1
  - keyword: guard
    title: High
    priority: 9
  - keyword: "  "
    title: Dropped
    priority: 100
`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0644))

	reg, err := styles.Load(path)
	assert.NoError(t, err)

	// Пустое ключевое слово отброшено, из двух совпадений побеждает
	// больший приоритет
	st, ok := reg.MatchTitle("Town Guard")
	assert.True(t, ok)
	assert.Equal(t, "High", st.Title)
	assert.Len(t, reg.SpecialTitles, 2)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	reg, err := styles.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.NotNil(t, reg)
	assert.NotEmpty(t, reg.Tiers, "при ошибке должен вернуться встроенный реестр")
}

func TestLoad_PartialFileKeepsDefaultSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	body := `tiers:
  - min_level: 1
    max_level: 100
    title: Flat
    color: white
    effect: none
`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0644))

	reg, err := styles.Load(path)
	assert.NoError(t, err)
	assert.Len(t, reg.Tiers, 1, "секция тиров должна быть заменена")
	assert.NotEmpty(t, reg.SpecialTitles, "нетронутая секция титулов должна остаться встроенной")
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")

	want := styles.DefaultRegistry()
	assert.NoError(t, styles.Save(path, want))

	got, err := styles.Load(path)
	assert.NoError(t, err)
	assert.Equal(t, want.Tiers, got.Tiers)
	assert.Equal(t, want.SpecialTitles, got.SpecialTitles)
}
