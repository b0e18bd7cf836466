package buissines

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/ClipFlow/internal/domain/download/consts"
	"github.com/Conte777/ClipFlow/internal/domain/download/dto"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	"github.com/Conte777/ClipFlow/internal/domain/download/pending"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

type fakeSender struct {
	sentTexts  []string
	edits      []string
	choiceData [][]dto.Choice
	sentPhotos []string
	sentVideos []string
	sentAudios []string
	sentAlbums [][]entities.DownloadedArtifact
	videoErr   error
	albumErr   error
	audioErr   error
	choicesErr error
	nextMsgID  int
}

func (s *fakeSender) SendText(_ context.Context, _ int64, text string) (int, error) {
	s.sentTexts = append(s.sentTexts, text)
	s.nextMsgID++
	return s.nextMsgID, nil
}

func (s *fakeSender) EditText(_ context.Context, _ int64, _ int, text string) error {
	s.edits = append(s.edits, text)
	return nil
}

func (s *fakeSender) EditTextWithChoices(_ context.Context, _ int64, _ int, text string, choices []dto.Choice) error {
	if s.choicesErr != nil {
		return s.choicesErr
	}
	s.edits = append(s.edits, text)
	s.choiceData = append(s.choiceData, choices)
	return nil
}

func (s *fakeSender) SendPhoto(_ context.Context, _ int64, path string) error {
	s.sentPhotos = append(s.sentPhotos, path)
	return nil
}

func (s *fakeSender) SendVideo(_ context.Context, _ int64, path string) error {
	s.sentVideos = append(s.sentVideos, path)
	return s.videoErr
}

func (s *fakeSender) SendAudio(_ context.Context, _ int64, path, _ string) error {
	s.sentAudios = append(s.sentAudios, path)
	return s.audioErr
}

func (s *fakeSender) SendAlbum(_ context.Context, _ int64, artifacts []entities.DownloadedArtifact) error {
	s.sentAlbums = append(s.sentAlbums, artifacts)
	return s.albumErr
}

func (s *fakeSender) lastEdit() string {
	if len(s.edits) == 0 {
		return ""
	}
	return s.edits[len(s.edits)-1]
}

type fakeInstagram struct {
	artifacts []entities.DownloadedArtifact
	err       error
	cleaned   [][]entities.DownloadedArtifact
}

func (r *fakeInstagram) DownloadPost(context.Context, string) ([]entities.DownloadedArtifact, error) {
	return r.artifacts, r.err
}

func (r *fakeInstagram) Cleanup(artifacts []entities.DownloadedArtifact) {
	r.cleaned = append(r.cleaned, artifacts)
}

type fakeYouTube struct {
	streams   map[string]entities.StreamOption
	listErr   error
	artifact  entities.DownloadedArtifact
	fetchErr  error
	fetchItag int
	cleaned   []entities.DownloadedArtifact
}

func (r *fakeYouTube) ListStreams(context.Context, string) (map[string]entities.StreamOption, error) {
	return r.streams, r.listErr
}

func (r *fakeYouTube) Fetch(_ context.Context, _ string, itag int) (entities.DownloadedArtifact, error) {
	r.fetchItag = itag
	return r.artifact, r.fetchErr
}

func (r *fakeYouTube) FetchShortForm(context.Context, string) (entities.DownloadedArtifact, error) {
	return r.artifact, r.fetchErr
}

func (r *fakeYouTube) Cleanup(artifact entities.DownloadedArtifact) {
	r.cleaned = append(r.cleaned, artifact)
}

type fakeStorage struct {
	removed []string
}

func (s *fakeStorage) NewFile(ext string) string { return "/tmp/fake" + ext }
func (s *fakeStorage) Remove(path string)        { s.removed = append(s.removed, path) }
func (s *fakeStorage) FileSize(string) int64     { return 1 }

type fakeTranscoder struct {
	artifact entities.DownloadedArtifact
	err      error
}

func (t *fakeTranscoder) Extract(context.Context, string) (entities.DownloadedArtifact, error) {
	return t.artifact, t.err
}

type capturingProducer struct {
	completed []*entities.DownloadEvent
	failed    []*entities.DownloadEvent
}

func (p *capturingProducer) DownloadCompleted(_ context.Context, e *entities.DownloadEvent) error {
	p.completed = append(p.completed, e)
	return nil
}

func (p *capturingProducer) DownloadFailed(_ context.Context, e *entities.DownloadEvent) error {
	p.failed = append(p.failed, e)
	return nil
}

func (p *capturingProducer) Close() error { return nil }

type fixture struct {
	uc        *UseCase
	sender    *fakeSender
	instagram *fakeInstagram
	youtube   *fakeYouTube
	storage   *fakeStorage
	trans     *fakeTranscoder
	store     *pending.MemoryStore
	producer  *capturingProducer
}

func newFixture() *fixture {
	f := &fixture{
		sender:    &fakeSender{},
		instagram: &fakeInstagram{},
		youtube:   &fakeYouTube{},
		storage:   &fakeStorage{},
		trans:     &fakeTranscoder{},
		store:     pending.NewMemoryStore(),
		producer:  &capturingProducer{},
	}
	f.uc = NewUseCase(f.instagram, f.youtube, f.store, f.storage, f.trans, f.producer, zerolog.Nop())
	f.uc.SetSender(f.sender)
	return f
}

func msg(text string) *dto.IncomingMessage {
	return &dto.IncomingMessage{UserID: 7, ChatID: 7, Text: text}
}

func TestHandleMessage_NoLink(t *testing.T) {
	f := newFixture()
	f.uc.HandleMessage(context.Background(), msg("hello there"))

	require.Len(t, f.sender.sentTexts, 1)
	assert.Equal(t, consts.MsgNoLinkFound, f.sender.sentTexts[0])
}

func TestHandleMessage_InstagramPost_DeliversAndCleansUp(t *testing.T) {
	f := newFixture()
	f.instagram.artifacts = []entities.DownloadedArtifact{
		{Path: "/tmp/a.jpg", Kind: entities.MediaPhoto, Size: 100},
	}

	f.uc.HandleMessage(context.Background(), msg("https://www.instagram.com/p/CxYz123AbCd/"))

	assert.Equal(t, []string{"/tmp/a.jpg"}, f.sender.sentPhotos)
	require.Len(t, f.instagram.cleaned, 1, "artifacts must be cleaned up after delivery")
	assert.Equal(t, consts.MsgInstagramSuccess, f.sender.lastEdit())
	require.Len(t, f.producer.completed, 1)
	assert.Equal(t, int64(100), f.producer.completed[0].TotalBytes)
}

func TestHandleMessage_InstagramCarousel_SentAsAlbum(t *testing.T) {
	f := newFixture()
	f.instagram.artifacts = []entities.DownloadedArtifact{
		{Path: "/tmp/1.jpg", Kind: entities.MediaPhoto},
		{Path: "/tmp/2.mp4", Kind: entities.MediaVideo},
		{Path: "/tmp/3.jpg", Kind: entities.MediaPhoto},
	}

	f.uc.HandleMessage(context.Background(), msg("https://www.instagram.com/p/CxYz123AbCd/"))

	require.Len(t, f.sender.sentAlbums, 1)
	assert.Len(t, f.sender.sentAlbums[0], 3)
	assert.Empty(t, f.sender.sentPhotos)
}

func TestHandleMessage_InstagramPrivate(t *testing.T) {
	f := newFixture()
	f.instagram.err = pkgerrors.NewAccessDenied("private account", nil)

	f.uc.HandleMessage(context.Background(), msg("https://www.instagram.com/p/CxYz123AbCd/"))

	assert.Equal(t, consts.MsgInstagramPrivate, f.sender.lastEdit())
	require.Len(t, f.producer.failed, 1)
	assert.Equal(t, "access_denied", f.producer.failed[0].FailureKind)
}

func TestHandleMessage_DeliveryFailure_StillCleansUp(t *testing.T) {
	f := newFixture()
	f.instagram.artifacts = []entities.DownloadedArtifact{
		{Path: "/tmp/a.mp4", Kind: entities.MediaVideo},
	}
	f.sender.videoErr = assert.AnError

	f.uc.HandleMessage(context.Background(), msg("https://www.instagram.com/p/CxYz123AbCd/"))

	require.Len(t, f.instagram.cleaned, 1, "cleanup must run even when upload fails")
	assert.Equal(t, consts.MsgGeneralError, f.sender.lastEdit())
	require.Len(t, f.producer.failed, 1)
	assert.Equal(t, "upload_failed", f.producer.failed[0].FailureKind)
}

func TestHandleMessage_Reel_OffersVideoOrAudio(t *testing.T) {
	f := newFixture()

	f.uc.HandleMessage(context.Background(), msg("https://www.instagram.com/reel/CxYz123AbCd/"))

	require.Len(t, f.sender.choiceData, 1)
	labels := []string{f.sender.choiceData[0][0].Label, f.sender.choiceData[0][1].Label}
	assert.Contains(t, labels, consts.ChoiceVideoLabel)
	assert.Contains(t, labels, consts.ChoiceAudioLabel)

	_, ok := f.store.Get(context.Background(), 7)
	assert.True(t, ok, "a pending selection must be stored")
}

func TestHandleMessage_YouTube_OffersQualityMenu(t *testing.T) {
	f := newFixture()
	f.youtube.streams = map[string]entities.StreamOption{
		"720p (15.00 MB)": {Label: "720p (15.00 MB)", Itag: 22, Resolution: "720p", Size: 15 << 20},
		"360p (5.00 MB)":  {Label: "360p (5.00 MB)", Itag: 18, Resolution: "360p", Size: 5 << 20},
	}

	f.uc.HandleMessage(context.Background(), msg("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))

	require.Len(t, f.sender.choiceData, 1)
	choices := f.sender.choiceData[0]
	require.Len(t, choices, 2)
	for _, c := range choices {
		assert.True(t, strings.HasPrefix(c.Data, "yt_"), "callback data must carry the yt prefix: %s", c.Data)
	}

	sel, ok := f.store.Get(context.Background(), 7)
	require.True(t, ok)
	assert.Len(t, sel.Streams, 2)
}

func TestHandleMessage_QualityMenuRenderFailure_DropsPending(t *testing.T) {
	f := newFixture()
	f.youtube.streams = map[string]entities.StreamOption{
		"720p (15.00 MB)": {Label: "720p (15.00 MB)", Itag: 22, Resolution: "720p", Size: 15 << 20},
	}
	f.sender.choicesErr = assert.AnError

	f.uc.HandleMessage(context.Background(), msg("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))

	_, ok := f.store.Get(context.Background(), 7)
	assert.False(t, ok, "pending selection must not survive a failed menu render")
	assert.Equal(t, consts.MsgGeneralError, f.sender.lastEdit())
}

func TestHandleMessage_ReelMenuRenderFailure_DropsPending(t *testing.T) {
	f := newFixture()
	f.sender.choicesErr = assert.AnError

	f.uc.HandleMessage(context.Background(), msg("https://www.instagram.com/reel/CxYz123AbCd/"))

	_, ok := f.store.Get(context.Background(), 7)
	assert.False(t, ok, "pending selection must not survive a failed menu render")
	assert.Equal(t, consts.MsgGeneralError, f.sender.lastEdit())
}

func TestHandleMessage_YouTube_NoStreams(t *testing.T) {
	f := newFixture()
	f.youtube.streams = map[string]entities.StreamOption{}

	f.uc.HandleMessage(context.Background(), msg("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))

	assert.Equal(t, consts.MsgYouTubeError, f.sender.lastEdit())
	_, ok := f.store.Get(context.Background(), 7)
	assert.False(t, ok, "no pending selection for a failed listing")
}

func TestHandleMessage_NewLinkOverwritesPending(t *testing.T) {
	f := newFixture()
	f.youtube.streams = map[string]entities.StreamOption{
		"360p (5.00 MB)": {Label: "360p (5.00 MB)", Itag: 18, Resolution: "360p"},
	}

	f.uc.HandleMessage(context.Background(), msg("https://www.youtube.com/watch?v=first11chars"))
	f.uc.HandleMessage(context.Background(), msg("https://www.youtube.com/watch?v=second2chars"))

	sel, ok := f.store.Get(context.Background(), 7)
	require.True(t, ok)
	assert.Contains(t, sel.URL, "second2chars", "newer link must overwrite the older pending selection")
}

func TestHandleMessage_Shorts_DirectDownload(t *testing.T) {
	f := newFixture()
	f.youtube.artifact = entities.DownloadedArtifact{Path: "/tmp/s.mp4", Kind: entities.MediaVideo, Size: 42}

	f.uc.HandleMessage(context.Background(), msg("https://www.youtube.com/shorts/AbCdEf12345"))

	assert.Equal(t, []string{"/tmp/s.mp4"}, f.sender.sentVideos)
	require.Len(t, f.youtube.cleaned, 1)
	assert.Equal(t, consts.MsgYouTubeShortsSuccess, f.sender.lastEdit())
}

func TestHandleCallback_StaleSelection(t *testing.T) {
	f := newFixture()

	f.uc.HandleCallback(context.Background(), &dto.CallbackRequest{
		UserID: 7, ChatID: 7, MessageID: 3, Action: dto.ActionYouTubeQuality, Itag: 22,
	})

	assert.Equal(t, consts.MsgGeneralError, f.sender.lastEdit())
	assert.Empty(t, f.sender.sentVideos)
}

func TestHandleCallback_YouTubeFetch(t *testing.T) {
	f := newFixture()
	f.youtube.artifact = entities.DownloadedArtifact{Path: "/tmp/v.mp4", Kind: entities.MediaVideo, Size: 9000}
	f.store.Put(context.Background(), &entities.PendingSelection{
		UserID: 7, ChatID: 7, URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", StatusMessageID: 3,
	})

	f.uc.HandleCallback(context.Background(), &dto.CallbackRequest{
		UserID: 7, ChatID: 7, MessageID: 3, Action: dto.ActionYouTubeQuality, Itag: 22,
	})

	assert.Equal(t, 22, f.youtube.fetchItag)
	assert.Equal(t, []string{"/tmp/v.mp4"}, f.sender.sentVideos)
	require.Len(t, f.youtube.cleaned, 1)

	_, ok := f.store.Get(context.Background(), 7)
	assert.False(t, ok, "selection is consumed by the callback")
}

func TestHandleCallback_SecondPressIsStale(t *testing.T) {
	f := newFixture()
	f.youtube.artifact = entities.DownloadedArtifact{Path: "/tmp/v.mp4", Kind: entities.MediaVideo}
	f.store.Put(context.Background(), &entities.PendingSelection{
		UserID: 7, ChatID: 7, URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", StatusMessageID: 3,
	})

	req := &dto.CallbackRequest{UserID: 7, ChatID: 7, MessageID: 3, Action: dto.ActionYouTubeQuality, Itag: 22}
	f.uc.HandleCallback(context.Background(), req)
	f.uc.HandleCallback(context.Background(), req)

	assert.Len(t, f.sender.sentVideos, 1, "second press must not trigger another fetch")
	assert.Equal(t, consts.MsgGeneralError, f.sender.lastEdit())
}

func TestHandleCallback_InstagramAudio(t *testing.T) {
	f := newFixture()
	f.instagram.artifacts = []entities.DownloadedArtifact{
		{Path: "/tmp/reel.mp4", Kind: entities.MediaVideo, Size: 2048},
	}
	f.trans.artifact = entities.DownloadedArtifact{Path: "/tmp/reel.mp3", Kind: entities.MediaAudio, Size: 512}
	f.store.Put(context.Background(), &entities.PendingSelection{
		UserID: 7, ChatID: 7, URL: "https://www.instagram.com/reel/CxYz123AbCd/", StatusMessageID: 3,
	})

	f.uc.HandleCallback(context.Background(), &dto.CallbackRequest{
		UserID: 7, ChatID: 7, MessageID: 3, Action: dto.ActionInstagramAudio,
	})

	assert.Equal(t, []string{"/tmp/reel.mp3"}, f.sender.sentAudios)
	require.Len(t, f.instagram.cleaned, 1, "source video must be removed after extraction")
	assert.Equal(t, []string{"/tmp/reel.mp3"}, f.storage.removed, "audio artifact must be removed after delivery")
	assert.Equal(t, consts.MsgAudioExtractionSuccess, f.sender.lastEdit())
}

func TestHandleCallback_InstagramAudio_NoVideoInPost(t *testing.T) {
	f := newFixture()
	f.instagram.artifacts = []entities.DownloadedArtifact{
		{Path: "/tmp/a.jpg", Kind: entities.MediaPhoto},
	}
	f.store.Put(context.Background(), &entities.PendingSelection{
		UserID: 7, ChatID: 7, URL: "https://www.instagram.com/reel/CxYz123AbCd/", StatusMessageID: 3,
	})

	f.uc.HandleCallback(context.Background(), &dto.CallbackRequest{
		UserID: 7, ChatID: 7, MessageID: 3, Action: dto.ActionInstagramAudio,
	})

	assert.Equal(t, consts.MsgAudioExtractionError, f.sender.lastEdit())
	assert.Empty(t, f.sender.sentAudios)
	require.Len(t, f.instagram.cleaned, 1)
}

func TestDeliverArtifacts_TruncatesLargeAlbums(t *testing.T) {
	f := newFixture()
	artifacts := make([]entities.DownloadedArtifact, 13)
	for i := range artifacts {
		artifacts[i] = entities.DownloadedArtifact{Path: "/tmp/x.jpg", Kind: entities.MediaPhoto}
	}

	err := f.uc.deliverArtifacts(context.Background(), 7, artifacts)
	require.NoError(t, err)

	require.Len(t, f.sender.sentAlbums, 1, "a carousel is delivered as a single media group")
	assert.Len(t, f.sender.sentAlbums[0], consts.MaxAlbumSize)
}
