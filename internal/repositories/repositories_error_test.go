package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

func TestUserRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			user := models.NewUser(0, "", "test@example.com")

			if err := repo.Create(user); err == nil {
				t.Fatal("expected validation error for empty username")
			}
		})

		t.Run("InvalidEmail", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			if err := repo.Create(models.NewUser(0, "tester", "not-an-email")); err == nil {
				t.Fatal("expected validation error for invalid email")
			}
		})

		t.Run("DuplicateUsername", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			if err := repo.Create(models.NewUser(0, "tester", "one@example.com")); err != nil {
				t.Fatalf("failed to create first user: %v", err)
			}

			err := repo.Create(models.NewUser(0, "tester", "two@example.com"))
			if err == nil {
				t.Fatal("expected error when creating user with duplicate username")
			}
		})

		t.Run("UsernameReusableAfterDelete", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			first := createUser(t, db, "tester")
			if err := repo.Delete(first.ID()); err != nil {
				t.Fatal(err)
			}

			if err := repo.Create(models.NewUser(0, "tester", "")); err != nil {
				t.Fatalf("expected username to be reusable after soft delete: %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, shared.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}
		})

		t.Run("UnknownUsername", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			_, err := NewUserRepository(db).FindByUsername("nobody")
			if !errors.Is(err, shared.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			_, err := NewUserRepository(db).Get("any")
			if err == nil || errors.Is(err, shared.ErrUserNotFound) {
				t.Fatalf("expected query error, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			user := models.NewUser(1, "ghost", "")
			user.SetID("nonexistent-id")

			if err := repo.Update(user); !errors.Is(err, shared.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			if err := repo.Update(models.NewUser(1, "no-id", "")); err == nil {
				t.Fatal("expected validation error for user without id")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("Twice", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewUserRepository(db)
			user := createUser(t, db, "tester")

			if err := repo.Delete(user.ID()); err != nil {
				t.Fatal(err)
			}
			if err := repo.Delete(user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			if _, err := NewUserRepository(db).List(nil); err == nil {
				t.Fatal("expected error listing on closed database")
			}
		})
	})
}

func TestLibraryRepositoryErrors(t *testing.T) {
	t.Run("SaveWithoutUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewLibraryRepository(db).SaveLibrary("", sampleTracks())
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("SaveForUnknownUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewLibraryRepository(db).SaveLibrary("missing-user", sampleTracks()); err == nil {
			t.Fatal("expected foreign key violation")
		}
	})

	t.Run("SaveInvalidTrackRollsBack", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, db, "listener")
		repo := NewLibraryRepository(db)
		if err := repo.SaveLibrary(user.ID(), sampleTracks()); err != nil {
			t.Fatal(err)
		}

		bad := append(sampleTracks()[:1], models.Track{})
		if err := repo.SaveLibrary(user.ID(), bad); err == nil {
			t.Fatal("expected validation error")
		}

		loaded, err := repo.LoadLibrary(user.ID())
		if err != nil {
			t.Fatal(err)
		}
		if len(loaded) != 3 {
			t.Errorf("expected previous snapshot to survive, got %d tracks", len(loaded))
		}
	})

	t.Run("SaveDuplicateIdentity", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, db, "listener")
		tr := sampleTracks()[0]
		if err := NewLibraryRepository(db).SaveLibrary(user.ID(), []models.Track{tr, tr}); err == nil {
			t.Fatal("expected unique constraint error")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewLibraryRepository(db).Get("nope"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		entry := models.NewLibraryEntry(1, "user", 0, sampleTracks()[0])
		entry.SetID("nope")
		if err := NewLibraryRepository(db).Update(entry); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewLibraryRepository(db).Delete("nope"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("CorruptKind", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createUser(t, db, "listener")
		repo := NewLibraryRepository(db)
		if err := repo.SaveLibrary(user.ID(), sampleTracks()[:1]); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(`UPDATE library_entries SET kind = 'vinyl'`); err != nil {
			t.Fatal(err)
		}

		if _, err := repo.LoadLibrary(user.ID()); err == nil {
			t.Fatal("expected error for unknown provider kind")
		}
	})
}
