package test

import (
	"net/http"
	"testing"

	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/core/playlist"
	"github.com/dugsiiye/barasho/core/video"
)

// The fixture helpers assume the env client currently holds an admin session.

func createCourse(t *testing.T, env *TestEnv, titleEN string, price int, published bool) course.Course {
	t.Helper()

	var c course.Course
	code := env.doJSON(t, http.MethodPost, "/courses", course.CourseNew{
		TitleEN: titleEN,
		TitleSO: titleEN + " (so)",
		Price:   price,
	}, &c)
	if code != http.StatusCreated {
		t.Fatalf("creating course %q: status %d", titleEN, code)
	}

	if published {
		code = env.doJSON(t, http.MethodPut, "/courses/"+c.ID, course.CourseUp{Published: &published}, &c)
		if code != http.StatusOK {
			t.Fatalf("publishing course %q: status %d", titleEN, code)
		}
	}
	return c
}

func createPlaylist(t *testing.T, env *TestEnv, courseID, titleEN string, index int) playlist.Playlist {
	t.Helper()

	var p playlist.Playlist
	code := env.doJSON(t, http.MethodPost, "/playlists", playlist.PlaylistNew{
		CourseID: courseID,
		Index:    index,
		TitleEN:  titleEN,
	}, &p)
	if code != http.StatusCreated {
		t.Fatalf("creating playlist %q: status %d", titleEN, code)
	}
	return p
}

func createVideo(t *testing.T, env *TestEnv, playlistID, titleEN string, index, durationSec int) video.Video {
	t.Helper()

	var v video.Video
	code := env.doJSON(t, http.MethodPost, "/videos", video.VideoNew{
		PlaylistID:  playlistID,
		Index:       index,
		TitleEN:     titleEN,
		Kind:        "youtube",
		URL:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		DurationSec: durationSec,
	}, &v)
	if code != http.StatusCreated {
		t.Fatalf("creating video %q: status %d", titleEN, code)
	}
	return v
}
