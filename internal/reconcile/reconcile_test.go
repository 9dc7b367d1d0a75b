package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/profilefeed/pkg/models"
)

func books(titles ...string) []models.Book {
	out := make([]models.Book, 0, len(titles))
	for _, t := range titles {
		out = append(out, models.Book{Title: t, Author: "author of " + t})
	}
	return out
}

func newTestReconciler() *Reconciler {
	return New(zerolog.Nop())
}

func TestReconcile_NonEmptyCollectionPassesThrough(t *testing.T) {
	fresh := &models.Payload{ToRead: books("new")}
	prior := &models.Payload{ToRead: books("old1", "old2")}

	final, report := newTestReconciler().Reconcile(fresh, prior)

	if diff := cmp.Diff(books("new"), final.ToRead); diff != "" {
		t.Errorf("toRead mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, report.Fallbacks)
}

func TestReconcile_EmptyCollectionFallsBack(t *testing.T) {
	fresh := &models.Payload{ToRead: []models.Book{}, Favorites: books("fav")}
	prior := &models.Payload{ToRead: books("old1", "old2"), Favorites: books("stale")}

	final, report := newTestReconciler().Reconcile(fresh, prior)

	require.Equal(t, books("old1", "old2"), final.ToRead)
	require.Equal(t, books("fav"), final.Favorites)
	require.Equal(t, []string{"toRead"}, report.Paths())
	require.False(t, report.Degraded())
}

func TestReconcile_EmptyWithoutPriorStaysEmpty(t *testing.T) {
	fresh := &models.Payload{Games: []models.Game{}}

	final, report := newTestReconciler().Reconcile(fresh, &models.Payload{})

	require.Nil(t, final.Games, "nothing to carry forward yields an absent section")
	require.Len(t, report.Fallbacks, 1)
	require.True(t, report.Degraded())
}

func TestReconcile_ScalarsAlwaysFromFresh(t *testing.T) {
	fresh := &models.Payload{Main: &models.Profile{
		CurrentlyReading: books("a"),
		RecentlyRead:     books("b"),
		ReadStyleSummary: models.String(""),
		ToReadCount:      models.Int(0),
	}}
	prior := &models.Payload{Main: &models.Profile{
		ReadStyleSummary: models.String("You read a lot of sci-fi"),
		ToReadCount:      models.Int(42),
	}}

	final, report := newTestReconciler().Reconcile(fresh, prior)

	require.NotNil(t, final.Main)
	require.Equal(t, "", *final.Main.ReadStyleSummary)
	require.Equal(t, 0, *final.Main.ToReadCount)
	require.Empty(t, report.Fallbacks)
}

func TestReconcile_CompositeSubKeysFallBackIndependently(t *testing.T) {
	fresh := &models.Payload{Main: &models.Profile{
		CurrentlyReading: []models.Book{},
		RecentlyRead:     books("fresh-recent"),
		ReadStyleSummary: models.String("new summary"),
		ToReadCount:      models.Int(7),
	}}
	prior := &models.Payload{Main: &models.Profile{
		CurrentlyReading: books("old-current"),
		RecentlyRead:     books("old-recent"),
		ReadStyleSummary: models.String("old summary"),
		ToReadCount:      models.Int(3),
	}}

	final, report := newTestReconciler().Reconcile(fresh, prior)

	want := &models.Profile{
		CurrentlyReading: books("old-current"),
		RecentlyRead:     books("fresh-recent"),
		ReadStyleSummary: models.String("new summary"),
		ToReadCount:      models.Int(7),
	}
	if diff := cmp.Diff(want, final.Main); diff != "" {
		t.Errorf("main mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"main.currentlyReading"}, report.Paths())
}

func TestReconcile_CompositeWithoutPriorMain(t *testing.T) {
	fresh := &models.Payload{Main: &models.Profile{
		CurrentlyReading: []models.Book{},
		RecentlyRead:     []models.Book{},
		ToReadCount:      models.Int(1),
	}}

	final, report := newTestReconciler().Reconcile(fresh, nil)

	require.NotNil(t, final.Main)
	require.Nil(t, final.Main.CurrentlyReading)
	require.Nil(t, final.Main.RecentlyRead)
	require.Equal(t, 1, *final.Main.ToReadCount)
	require.Equal(t, []string{"main.currentlyReading", "main.recentlyRead"}, report.Paths())
}

func TestReconcile_AbsentFreshSectionIsNotCarried(t *testing.T) {
	fresh := &models.Payload{ToRead: books("x")}
	prior := &models.Payload{
		Main:      &models.Profile{ToReadCount: models.Int(9)},
		Favorites: books("fav"),
		Games:     []models.Game{{Title: "Hades"}},
	}

	final, _ := newTestReconciler().Reconcile(fresh, prior)

	require.False(t, final.Has(models.SectionMain))
	require.False(t, final.Has(models.SectionFavorites))
	require.False(t, final.Has(models.SectionGames))
	require.True(t, final.Has(models.SectionToRead))
}

func TestReconcile_DoesNotAliasPrior(t *testing.T) {
	fresh := &models.Payload{Favorites: []models.Book{}}
	prior := &models.Payload{Favorites: books("one")}

	final, _ := newTestReconciler().Reconcile(fresh, prior)
	final.Favorites[0].Title = "mutated"

	require.Equal(t, "one", prior.Favorites[0].Title)
}

func TestReconcile_NilFresh(t *testing.T) {
	final, report := newTestReconciler().Reconcile(nil, &models.Payload{ToRead: books("a")})
	require.Equal(t, &models.Payload{}, final)
	require.Empty(t, report.Fallbacks)
}

func TestIsFallbackEligibleAndEmpty(t *testing.T) {
	tests := []struct {
		name  string
		shape models.Shape
		value []int
		want  bool
	}{
		{"present empty collection", models.ShapeCollection, []int{}, true},
		{"absent collection", models.ShapeCollection, nil, false},
		{"non-empty collection", models.ShapeCollection, []int{1}, false},
		{"scalar shape", models.ShapeScalar, []int{}, false},
		{"composite shape", models.ShapeComposite, []int{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isFallbackEligibleAndEmpty(tt.shape, tt.value))
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	fresh := &models.Payload{
		ToRead:    []models.Book{},
		Favorites: books("f"),
		Main:      &models.Profile{CurrentlyReading: []models.Book{}, RecentlyRead: books("r"), ToReadCount: models.Int(2)},
	}
	prior := &models.Payload{
		ToRead: books("t1", "t2"),
		Main:   &models.Profile{CurrentlyReading: books("c")},
	}

	r := newTestReconciler()
	once, _ := r.Reconcile(fresh, prior)
	twice, _ := r.Reconcile(fresh, once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second reconcile changed result (-once +twice):\n%s", diff)
	}
}

func TestReconcile_EndToEndScenario(t *testing.T) {
	fresh := &models.Payload{
		ToRead:    []models.Book{},
		Favorites: []models.Book{{Title: "A"}},
		Games:     []models.Game{{Title: "B"}},
		Main: &models.Profile{
			CurrentlyReading: []models.Book{},
			RecentlyRead:     []models.Book{{Title: "C"}},
			ReadStyleSummary: models.String("Slow Reader"),
			ToReadCount:      models.Int(5),
		},
	}
	prior := &models.Payload{
		ToRead:    []models.Book{{Title: "X"}},
		Favorites: []models.Book{},
		Games:     []models.Game{},
		Main: &models.Profile{
			CurrentlyReading: []models.Book{{Title: "Y"}},
			RecentlyRead:     []models.Book{},
			ReadStyleSummary: models.String("old"),
			ToReadCount:      models.Int(2),
		},
	}
	want := &models.Payload{
		ToRead:    []models.Book{{Title: "X"}},
		Favorites: []models.Book{{Title: "A"}},
		Games:     []models.Game{{Title: "B"}},
		Main: &models.Profile{
			CurrentlyReading: []models.Book{{Title: "Y"}},
			RecentlyRead:     []models.Book{{Title: "C"}},
			ReadStyleSummary: models.String("Slow Reader"),
			ToReadCount:      models.Int(5),
		},
	}

	final, report := newTestReconciler().Reconcile(fresh, prior)

	if diff := cmp.Diff(want, final); diff != "" {
		t.Errorf("final mismatch (-want +got):\n%s", diff)
	}
	require.ElementsMatch(t, []string{"toRead", "main.currentlyReading"}, report.Paths())
}

func TestReconcile_FirstRun(t *testing.T) {
	fresh := &models.Payload{
		Games:     []models.Game{},
		Favorites: books("a"),
	}

	final, _ := newTestReconciler().Reconcile(fresh, &models.Payload{})

	require.False(t, final.Has(models.SectionGames))
	require.Equal(t, books("a"), final.Favorites)
}
