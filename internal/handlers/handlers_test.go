package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerslide/internal/models"
	"powerslide/internal/persist"
	"powerslide/internal/services"
)

type testServer struct {
	router *mux.Router
	store  *services.DeckStore
	sink   *persist.MemoryKV
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sink := persist.NewMemoryKV()
	store := services.NewDeckStore(sink)
	hub := services.NewDeckHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	store.OnChange(hub.Publish)

	deckHandler := NewDeckHandler(store, services.NewSnapshotStore(t.TempDir()), 1<<20)
	router := SetupRoutes(deckHandler, NewWebSocketHandler(hub, store))
	return &testServer{router: router, store: store, sink: sink}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetDeck(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/deck", "")
	require.Equal(t, http.StatusOK, rec.Code)
	deck := decode[models.Deck](t, rec)
	assert.Equal(t, models.DefaultTitle, deck.Title)
	assert.Len(t, deck.Slides, 1)
}

func TestSlideEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/slides", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decode[IndexResponse](t, rec).Index)

	rec = s.do(t, http.MethodPost, "/api/slides", `{"name":"Seeded","objects":[{"type":"text","data":{"text":"x"}}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, decode[IndexResponse](t, rec).Index)

	rec = s.do(t, http.MethodPatch, "/api/slides/0", `{"name":"Intro"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/slides/current", `{"index":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	deck := s.store.Snapshot()
	assert.Equal(t, "Intro", deck.Slides[0].Name)
	assert.Equal(t, "Seeded", deck.Slides[2].Name)
	assert.Len(t, deck.Slides[2].Objects, 1)
	assert.Equal(t, 0, deck.Current)

	rec = s.do(t, http.MethodDelete, "/api/slides/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.store.Snapshot().Slides, 2)

	rec = s.do(t, http.MethodDelete, "/api/slides/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/slides/current", `{"index":7}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/slides/0", `{bad`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObjectEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/objects", `{"preset":"text"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	textID := decode[IDResponse](t, rec).ID

	rec = s.do(t, http.MethodPost, "/api/objects", `{"object":{"type":"shape","x":1,"y":2,"w":3,"h":4,"data":{"shape":"ellipse"}}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	shapeID := decode[IDResponse](t, rec).ID

	rec = s.do(t, http.MethodPost, "/api/objects", `{"object":{"type":"video"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/objects", `{"preset":"star"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/objects", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/objects/"+textID, `{"x":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPatch, "/api/objects/"+textID+"/data", `{"italic":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/objects/"+textID+"/forward", "")
	require.Equal(t, http.StatusOK, rec.Code)

	objects := s.store.Snapshot().Slides[0].Objects
	require.Len(t, objects, 2)
	assert.Equal(t, shapeID, objects[0].ID)
	assert.Equal(t, textID, objects[1].ID)
	assert.Equal(t, 5.0, objects[1].X)
	assert.True(t, objects[1].Data.Italic)

	rec = s.do(t, http.MethodPost, "/api/objects/"+textID+"/backward", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, textID, s.store.Snapshot().Slides[0].Objects[0].ID)

	rec = s.do(t, http.MethodDelete, "/api/objects/"+shapeID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.store.Snapshot().Slides[0].Objects, 1)
}

func TestSelectionEndpoints(t *testing.T) {
	s := newTestServer(t)
	a, _ := s.store.AddObject(models.TextPreset())
	b, _ := s.store.AddObject(models.TextPreset())

	rec := s.do(t, http.MethodPost, "/api/selection", `{"id":"`+a+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Selection{a}, decode[models.Selection](t, rec))

	rec = s.do(t, http.MethodPost, "/api/selection", `{"id":"`+b+`","additive":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Selection{a, b}, decode[models.Selection](t, rec))

	rec = s.do(t, http.MethodDelete, "/api/selection/objects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	deck := s.store.Snapshot()
	assert.Empty(t, deck.Slides[0].Objects)
	assert.Empty(t, deck.Selection)

	s.store.Select("x", false)
	rec = s.do(t, http.MethodDelete, "/api/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.store.Snapshot().Selection)

	rec = s.do(t, http.MethodPost, "/api/selection", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeckEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/deck/title", `{"title":"Roadmap"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/deck/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="Roadmap.json"`)
	exported := rec.Body.String()

	rec = s.do(t, http.MethodPost, "/api/deck/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultTitle, s.store.Snapshot().Title)

	rec = s.do(t, http.MethodPost, "/api/deck/import", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Roadmap", s.store.Snapshot().Title)

	rec = s.do(t, http.MethodPost, "/api/deck/import", `{"title":"no slides"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid deck file")

	rec = s.do(t, http.MethodPost, "/api/deck/save", "")
	require.Equal(t, http.StatusOK, rec.Code)

	s.store.SetCurrent(0)
	s.store.Select("x", false)
	rec = s.do(t, http.MethodPost, "/api/deck/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "restored", decode[LoadResponse](t, rec).Result)
	assert.Empty(t, s.store.Snapshot().Selection)
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "dot.png")
	require.NoError(t, err)
	part.Write(img.Bytes())
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	id := decode[IDResponse](t, rec).ID
	obj := s.store.Snapshot().Slides[0].Objects[0]
	assert.Equal(t, id, obj.ID)
	assert.Equal(t, models.ObjectImage, obj.Type)
	assert.Equal(t, "dot.png", obj.Data.Name)
	assert.True(t, strings.HasPrefix(obj.Data.DataURL, "data:image/png;base64,"))

	rec = s.do(t, http.MethodPost, "/api/images", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotAndPDFLayout(t *testing.T) {
	s := newTestServer(t)
	s.store.AddSlide(nil)

	rec := s.do(t, http.MethodGet, "/api/export/pdf-layout", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	for i, size := range [][2]int{{1280, 720}, {720, 1280}} {
		var img bytes.Buffer
		require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, size[0], size[1]))))
		body := `{"imageBase64":"data:image/png;base64,` + base64.StdEncoding.EncodeToString(img.Bytes()) + `"}`

		rec := s.do(t, http.MethodPost, "/api/slides/"+string(rune('0'+i))+"/snapshot", body)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[SlideSnapshotResponse](t, rec)
		assert.Equal(t, services.PNGFilename(i), resp.Filename)
		assert.Equal(t, 2, resp.Scale)
	}

	rec = s.do(t, http.MethodGet, "/api/export/pdf-layout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	layout := decode[services.PDFLayout](t, rec)
	assert.Equal(t, "deck-Untitled Deck.pdf", layout.Filename)
	require.Len(t, layout.Pages, 2)
	assert.Equal(t, 1280, layout.Pages[1].Width)
	assert.Equal(t, services.Landscape, layout.Pages[1].Orientation)

	rec = s.do(t, http.MethodPost, "/api/slides/5/snapshot", `{"imageBase64":"aGk="}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
