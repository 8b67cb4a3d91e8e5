package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testTrack() lyrics.Track {
	return lyrics.Track{
		{TimeMs: 1000, Text: "Bésame", Speaker: lyrics.SpeakerA},
		{TimeMs: 2500, Text: "bésame mucho", Speaker: lyrics.SpeakerB},
		{TimeMs: 4000, Text: "como si fuera esta noche", Speaker: lyrics.SpeakerBoth},
	}
}

func createSong(t *testing.T, repo *SongRepository, title, artist string, createdAt time.Time) *models.Song {
	t.Helper()

	song := models.NewSong(0, title, artist, testTrack(), "https://cdn.example.com/"+title+".mp3")
	song.SetCreatedAt(createdAt)
	if err := repo.Create(song); err != nil {
		t.Fatalf("failed to create song %q: %v", title, err)
	}
	return song
}

func TestSongRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := models.NewSong(0, "Bésame Mucho", "Consuelo Velázquez", testTrack(), "https://cdn.example.com/a.mp3")
		song.SetCoverURL("https://cdn.example.com/c.jpg")

		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		if song.ID() == "" || song.Sequence() != 1 {
			t.Errorf("expected ID and sequence 1 after creation, got %q %d", song.ID(), song.Sequence())
		}

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}

		if retrieved.Title() != "Bésame Mucho" || retrieved.CoverURL() != "https://cdn.example.com/c.jpg" {
			t.Errorf("unexpected song %s / %s", retrieved.Title(), retrieved.CoverURL())
		}

		got := retrieved.Lyrics()
		want := testTrack()
		if len(got) != len(want) {
			t.Fatalf("expected %d lyric lines, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("Create Without Cover Or Lyrics", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := models.NewSong(0, "Instrumental", "Banda", nil, "https://cdn.example.com/i.mp3")
		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if retrieved.CoverURL() != "" {
			t.Errorf("expected empty cover, got %q", retrieved.CoverURL())
		}
		if lines := retrieved.Lyrics(); lines == nil || len(lines) != 0 {
			t.Errorf("expected empty non-nil lyrics, got %v", lines)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "Cielito Lindo", "Tradicional", time.Now())

		song.SetTitle("Cielito Lindo (en vivo)")
		if err := repo.Update(song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		found, err := repo.Search("en vivo", 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(found) != 1 {
			t.Errorf("expected search key to follow the new title, got %d results", len(found))
		}
	})

	t.Run("UpdateLyrics", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "La Bamba", "Tradicional", time.Now())

		track := lyrics.ParseLRC("[00:01.00]Para bailar la bamba")
		if err := repo.UpdateLyrics(song.ID(), track); err != nil {
			t.Fatalf("failed to update lyrics: %v", err)
		}

		retrieved, _ := repo.Get(song.ID())
		if len(retrieved.Lyrics()) != 1 || retrieved.Lyrics()[0].Text != "Para bailar la bamba" {
			t.Errorf("unexpected lyrics %v", retrieved.Lyrics())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "Gone", "Nobody", time.Now())

		if err := repo.Delete(song.ID()); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := repo.Get(song.ID()); err == nil {
			t.Error("expected error when getting deleted song")
		}

		n, err := repo.Count()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected deleted song to be excluded from count, got %d", n)
		}
	})

	t.Run("Page Newest First", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, title := range []string{"uno", "dos", "tres", "cuatro", "cinco"} {
			createSong(t, repo, title, "Artista", base.Add(time.Duration(i)*time.Hour))
		}

		first, err := repo.Page(1, 2)
		if err != nil {
			t.Fatalf("failed to page songs: %v", err)
		}
		if len(first) != 2 || first[0].Title() != "cinco" || first[1].Title() != "cuatro" {
			t.Errorf("unexpected first page %v", titles(first))
		}

		last, err := repo.Page(3, 2)
		if err != nil {
			t.Fatalf("failed to page songs: %v", err)
		}
		if len(last) != 1 || last[0].Title() != "uno" {
			t.Errorf("unexpected last page %v", titles(last))
		}

		beyond, err := repo.Page(10, 2)
		if err != nil {
			t.Fatalf("failed to page songs: %v", err)
		}
		if beyond == nil || len(beyond) != 0 {
			t.Errorf("expected empty page past the end, got %v", titles(beyond))
		}

		normalised, err := repo.Page(0, 0)
		if err != nil {
			t.Fatalf("failed to page songs: %v", err)
		}
		if len(normalised) != 5 {
			t.Errorf("expected invalid page args to fall back to page 1 of %d, got %d", DefaultPageSize, len(normalised))
		}
	})

	t.Run("Search", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		now := time.Now()
		createSong(t, repo, "Bésame Mucho", "Consuelo Velázquez", now)
		createSong(t, repo, "Cielito Lindo", "Tradicional", now.Add(time.Second))
		createSong(t, repo, "100% Pure", "Band_Name", now.Add(2*time.Second))

		tt := []struct {
			name  string
			query string
			want  int
		}{
			{name: "accent insensitive", query: "besame", want: 1},
			{name: "case insensitive", query: "CIELITO", want: 1},
			{name: "matches artist", query: "velazquez", want: 1},
			{name: "substring", query: "lind", want: 1},
			{name: "literal percent", query: "100%", want: 1},
			{name: "percent is not a wildcard", query: "%", want: 1},
			{name: "underscore is literal", query: "d_n", want: 1},
			{name: "no match", query: "zzz", want: 0},
			{name: "empty query", query: "", want: 0},
			{name: "blank query", query: "   ", want: 0},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				found, err := repo.Search(tc.query, 20)
				if err != nil {
					t.Fatalf("Search(%q) error = %v", tc.query, err)
				}
				if found == nil {
					t.Fatal("expected a non-nil result")
				}
				if len(found) != tc.want {
					t.Errorf("Search(%q) returned %d songs, want %d: %v", tc.query, len(found), tc.want, titles(found))
				}
			})
		}
	})

	t.Run("Search Limit", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		for i := range 5 {
			createSong(t, repo, "Amor", "Artista", time.Now().Add(time.Duration(i)*time.Second))
		}

		found, err := repo.Search("amor", 3)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(found) != 3 {
			t.Errorf("expected limit of 3, got %d", len(found))
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		createSong(t, repo, "uno", "A", time.Now())
		createSong(t, repo, "dos", "B", time.Now())

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(all) != 2 || all[0].Title() != "uno" {
			t.Errorf("expected insertion order, got %v", titles(all))
		}

		filtered, err := repo.List(map[string]any{"artist": "B"})
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(filtered) != 1 || filtered[0].Title() != "dos" {
			t.Errorf("unexpected filtered list %v", titles(filtered))
		}
	})
}

func titles(songs []*models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title()
	}
	return out
}

func TestUserRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Email() != user.Email() {
			t.Errorf("expected email %s, got %s", user.Email(), retrieved.Email())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if err := repo.Create(models.NewUser(0, "Ana@Example.com", "Ana")); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		user, err := repo.GetByEmail(" ana@example.com ")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}
		if user.Name() != "Ana" {
			t.Errorf("expected Ana, got %s", user.Name())
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		first := models.NewUser(0, "ana@example.com", "Ana")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		second := models.NewUser(0, "ana@example.com", "Ana María")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("expected upsert to reuse ID %s, got %s", first.ID(), second.ID())
		}

		users, _ := repo.List(map[string]any{})
		if len(users) != 1 || users[0].Name() != "Ana María" {
			t.Errorf("expected one renamed user, got %d", len(users))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}
		if _, err := repo.Get(user.ID()); err == nil {
			t.Error("expected error when getting deleted user")
		}

		again := models.NewUser(0, "test@example.com", "Returning User")
		if err := repo.Create(again); err != nil {
			t.Errorf("expected email of a deleted user to be reusable: %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		for _, user := range []*models.User{
			models.NewUser(0, "user1@example.com", "User One"),
			models.NewUser(0, "user2@example.com", "User Two"),
			models.NewUser(0, "user3@example.com", "User Three"),
		} {
			if err := repo.Create(user); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		retrieved, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(retrieved) != 3 {
			t.Errorf("expected 3 users, got %d", len(retrieved))
		}

		filtered, err := repo.List(map[string]any{"email": "user2@example.com"})
		if err != nil {
			t.Fatalf("failed to list filtered users: %v", err)
		}
		if len(filtered) != 1 || filtered[0].Email() != "user2@example.com" {
			t.Errorf("expected user2@example.com only, got %d users", len(filtered))
		}
	})
}

func TestRecordingRepository(t *testing.T) {
	setup := func(t *testing.T) (*sql.DB, *RecordingRepository, *models.Song) {
		t.Helper()
		db := setupTestDB(t)
		song := createSong(t, NewSongRepository(db), "Dueto", "Pareja", time.Now())
		return db, NewRecordingRepository(db), song
	}

	t.Run("Create & Get", func(t *testing.T) {
		db, repo, song := setup(t)
		defer db.Close()

		rec := models.NewRecording(0, song.ID(), "https://cdn.example.com/take.m4a")
		rec.SetEffect(models.EffectKTV)
		rec.SetDurationMs(183000)

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recording: %v", err)
		}

		retrieved, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get recording: %v", err)
		}
		if retrieved.Effect() != models.EffectKTV || retrieved.DurationMs() != 183000 || retrieved.Mode() != models.ModeSolo {
			t.Errorf("unexpected recording %+v", retrieved.Record())
		}
	})

	t.Run("Duet Join", func(t *testing.T) {
		db, repo, song := setup(t)
		defer db.Close()

		open := models.NewRecording(0, song.ID(), "https://cdn.example.com/a.m4a")
		open.SetDuet(lyrics.SpeakerA, "")
		open.SetOpenCollab(true)
		if err := repo.Create(open); err != nil {
			t.Fatalf("failed to create open collab: %v", err)
		}

		collabs, err := repo.ListOpenCollabs(song.ID())
		if err != nil {
			t.Fatalf("failed to list open collabs: %v", err)
		}
		if len(collabs) != 1 || collabs[0].Part() != lyrics.SpeakerA {
			t.Fatalf("expected one open collab singing A, got %d", len(collabs))
		}

		join := models.NewRecording(0, song.ID(), "https://cdn.example.com/b.m4a")
		join.SetDuet(lyrics.SpeakerB, open.ID())
		if err := repo.Create(join); err != nil {
			t.Fatalf("failed to create joined duet: %v", err)
		}

		retrieved, err := repo.Get(join.ID())
		if err != nil {
			t.Fatalf("failed to get joined duet: %v", err)
		}
		if retrieved.ParentID() != open.ID() || retrieved.Part() != lyrics.SpeakerB {
			t.Errorf("unexpected joined duet %+v", retrieved.Record())
		}

		all, err := repo.ListBySong(song.ID())
		if err != nil {
			t.Fatalf("failed to list recordings: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 recordings, got %d", len(all))
		}

		anywhere, err := repo.ListOpenCollabs("")
		if err != nil {
			t.Fatalf("failed to list open collabs: %v", err)
		}
		if len(anywhere) != 1 {
			t.Errorf("expected the catalog-wide listing to find 1 open collab, got %d", len(anywhere))
		}
	})

	t.Run("Update & Delete", func(t *testing.T) {
		db, repo, song := setup(t)
		defer db.Close()

		rec := models.NewRecording(0, song.ID(), "https://cdn.example.com/take.m4a")
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recording: %v", err)
		}

		rec.SetEffect(models.EffectRock)
		if err := repo.Update(rec); err != nil {
			t.Fatalf("failed to update recording: %v", err)
		}

		retrieved, _ := repo.Get(rec.ID())
		if retrieved.Effect() != models.EffectRock {
			t.Errorf("expected Rock, got %s", retrieved.Effect())
		}

		if err := repo.Delete(rec.ID()); err != nil {
			t.Fatalf("failed to delete recording: %v", err)
		}
		if _, err := repo.Get(rec.ID()); err == nil {
			t.Error("expected error when getting deleted recording")
		}
	})
}

func TestPageOffset(t *testing.T) {
	tt := []struct {
		page, limit           int
		wantLimit, wantOffset int
	}{
		{1, 10, 10, 0},
		{3, 10, 10, 20},
		{0, 10, 10, 0},
		{-4, 10, 10, 0},
		{2, 0, 20, 20},
		{1, 500, 20, 0},
	}

	for _, tc := range tt {
		limit, offset := PageOffset(tc.page, tc.limit, 20)
		if limit != tc.wantLimit || offset != tc.wantOffset {
			t.Errorf("PageOffset(%d, %d) = %d, %d; want %d, %d", tc.page, tc.limit, limit, offset, tc.wantLimit, tc.wantOffset)
		}
	}
}
