// Package buissines contains business logic for the download domain
package buissines

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/internal/domain/download/consts"
	"github.com/Conte777/ClipFlow/internal/domain/download/deps"
	"github.com/Conte777/ClipFlow/internal/domain/download/dto"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	"github.com/Conte777/ClipFlow/internal/domain/download/linkparse"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

// UseCase orchestrates the download flows: classify the link, negotiate a
// selection when needed, fetch, deliver, clean up.
type UseCase struct {
	instagram  deps.InstagramRepository
	youtube    deps.YouTubeRepository
	pending    deps.PendingStore
	storage    deps.TempStorage
	transcoder deps.AudioTranscoder
	producer   deps.DownloadEventProducer
	sender     deps.TelegramSender
	logger     zerolog.Logger
}

// NewUseCase creates a new UseCase instance
// Note: sender is not passed here to break cyclic dependency
// Use SetSender after creating TelegramHandlers
func NewUseCase(
	instagram deps.InstagramRepository,
	youtube deps.YouTubeRepository,
	pending deps.PendingStore,
	storage deps.TempStorage,
	transcoder deps.AudioTranscoder,
	producer deps.DownloadEventProducer,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		instagram:  instagram,
		youtube:    youtube,
		pending:    pending,
		storage:    storage,
		transcoder: transcoder,
		producer:   producer,
		logger:     logger,
	}
}

// SetSender sets the TelegramSender after construction
// This is called by fx.Invoke to resolve cyclic dependency
func (uc *UseCase) SetSender(sender deps.TelegramSender) {
	uc.sender = sender
}

// HandleStart handles /start command
func (uc *UseCase) HandleStart(ctx context.Context, req *dto.IncomingMessage) (*dto.CommandResponse, error) {
	uc.logger.Info().Int64("user_id", req.UserID).Msg("User started bot")
	return &dto.CommandResponse{Message: consts.StartMessage}, nil
}

// HandleHelp handles /help command
func (uc *UseCase) HandleHelp(ctx context.Context) (*dto.CommandResponse, error) {
	return &dto.CommandResponse{Message: consts.HelpMessage}, nil
}

// HandleAbout handles /about command
func (uc *UseCase) HandleAbout(ctx context.Context) (*dto.CommandResponse, error) {
	return &dto.CommandResponse{Message: consts.AboutMessage}, nil
}

// HandleMessage classifies a free-form message and routes it into the matching
// download flow. Every path ends with a message to the user; errors are
// reported, never propagated to the transport layer.
func (uc *UseCase) HandleMessage(ctx context.Context, req *dto.IncomingMessage) {
	link, ok := linkparse.Classify(req.Text)
	if !ok {
		uc.reply(ctx, req.ChatID, consts.MsgNoLinkFound)
		return
	}

	uc.logger.Info().
		Int64("user_id", req.UserID).
		Str("url", link.RawURL).
		Str("platform", string(link.Platform)).
		Str("kind", string(link.Kind)).
		Msg("Link classified")

	switch {
	case link.Platform == entities.PlatformInstagram && link.Kind == entities.KindPost:
		uc.runInstagramPost(ctx, req, link)
	case link.Platform == entities.PlatformInstagram && link.Kind == entities.KindReelOrVideo:
		uc.offerVideoOrAudio(ctx, req, link)
	case link.Platform == entities.PlatformYouTube && link.Kind == entities.KindShortForm:
		uc.runYouTubeShortForm(ctx, req, link)
	case link.Platform == entities.PlatformYouTube && link.Kind == entities.KindReelOrVideo:
		uc.offerQualitySelection(ctx, req, link)
	default:
		uc.reply(ctx, req.ChatID, consts.MsgUnsupportedLink)
	}
}

// HandleCallback resumes a suspended flow from a button press. The pending
// selection is atomically consumed; a second press of a stale button misses.
func (uc *UseCase) HandleCallback(ctx context.Context, req *dto.CallbackRequest) {
	sel, ok := uc.pending.Pop(ctx, req.UserID)
	if !ok {
		uc.logger.Warn().Int64("user_id", req.UserID).Msg("Callback without a pending selection")
		uc.edit(ctx, req.ChatID, req.MessageID, consts.MsgGeneralError)
		return
	}

	switch req.Action {
	case dto.ActionYouTubeQuality:
		uc.runYouTubeFetch(ctx, req, sel)
	case dto.ActionInstagramVideo:
		uc.runInstagramVideo(ctx, req, sel)
	case dto.ActionInstagramAudio:
		uc.runInstagramAudio(ctx, req, sel)
	default:
		uc.logger.Warn().Str("action", string(req.Action)).Msg("Unknown callback action")
		uc.edit(ctx, req.ChatID, req.MessageID, consts.MsgGeneralError)
	}
}

// runInstagramPost downloads every media item of a post and delivers it
func (uc *UseCase) runInstagramPost(ctx context.Context, req *dto.IncomingMessage, link *entities.ClassifiedLink) {
	statusID := uc.reply(ctx, req.ChatID, consts.MsgInstagramStarted)

	artifacts, err := uc.instagram.DownloadPost(ctx, link.RawURL)
	if err != nil {
		uc.edit(ctx, req.ChatID, statusID, uc.failureMessage(err, consts.MsgInstagramError))
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	defer uc.instagram.Cleanup(artifacts)

	uc.edit(ctx, req.ChatID, statusID, consts.MsgUploading)

	if err := uc.deliverArtifacts(ctx, req.ChatID, artifacts); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to deliver Instagram media")
		uc.edit(ctx, req.ChatID, statusID, consts.MsgGeneralError)
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}

	uc.edit(ctx, req.ChatID, statusID, consts.MsgInstagramSuccess)
	uc.publishSuccess(ctx, req.UserID, link, artifacts)
}

// offerVideoOrAudio suspends a reel flow behind a video-or-audio menu
func (uc *UseCase) offerVideoOrAudio(ctx context.Context, req *dto.IncomingMessage, link *entities.ClassifiedLink) {
	statusID := uc.reply(ctx, req.ChatID, consts.MsgVideoOrAudio)

	uc.pending.Put(ctx, &entities.PendingSelection{
		UserID:          req.UserID,
		ChatID:          req.ChatID,
		URL:             link.RawURL,
		StatusMessageID: statusID,
		CreatedAt:       time.Now(),
	})

	choices := []dto.Choice{
		{Label: consts.ChoiceVideoLabel, Data: string(dto.ActionInstagramVideo)},
		{Label: consts.ChoiceAudioLabel, Data: string(dto.ActionInstagramAudio)},
	}
	if err := uc.sender.EditTextWithChoices(ctx, req.ChatID, statusID, consts.MsgVideoOrAudio, choices); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to show video-or-audio menu")
		uc.pending.Pop(ctx, req.UserID)
		uc.edit(ctx, req.ChatID, statusID, consts.MsgGeneralError)
	}
}

// offerQualitySelection lists renditions and suspends the flow behind a
// quality menu
func (uc *UseCase) offerQualitySelection(ctx context.Context, req *dto.IncomingMessage, link *entities.ClassifiedLink) {
	statusID := uc.reply(ctx, req.ChatID, consts.MsgYouTubeStarted)

	streams, err := uc.youtube.ListStreams(ctx, link.RawURL)
	if err != nil {
		uc.edit(ctx, req.ChatID, statusID, uc.failureMessage(err, consts.MsgYouTubeError))
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	if len(streams) == 0 {
		uc.edit(ctx, req.ChatID, statusID, consts.MsgYouTubeError)
		uc.publishFailure(ctx, req.UserID, link, pkgerrors.NewEmptyResult("no downloadable renditions"))
		return
	}

	uc.pending.Put(ctx, &entities.PendingSelection{
		UserID:          req.UserID,
		ChatID:          req.ChatID,
		URL:             link.RawURL,
		Streams:         streams,
		StatusMessageID: statusID,
		CreatedAt:       time.Now(),
	})

	choices := qualityChoices(streams)
	if err := uc.sender.EditTextWithChoices(ctx, req.ChatID, statusID, consts.MsgQualitySelection, choices); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to show quality menu")
		uc.pending.Pop(ctx, req.UserID)
		uc.edit(ctx, req.ChatID, statusID, consts.MsgGeneralError)
	}
}

// qualityChoices orders menu buttons by rendition size descending so the menu
// mirrors the resolution order of the listing
func qualityChoices(streams map[string]entities.StreamOption) []dto.Choice {
	options := make([]entities.StreamOption, 0, len(streams))
	for _, opt := range streams {
		options = append(options, opt)
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Resolution != options[j].Resolution {
			return options[i].Resolution > options[j].Resolution
		}
		return options[i].Size > options[j].Size
	})

	choices := make([]dto.Choice, 0, len(options))
	for _, opt := range options {
		choices = append(choices, dto.Choice{
			Label: opt.Label,
			Data:  fmt.Sprintf("%s_%d", dto.ActionYouTubeQuality, opt.Itag),
		})
	}
	return choices
}

// runYouTubeShortForm downloads short-form content without a selection step
func (uc *UseCase) runYouTubeShortForm(ctx context.Context, req *dto.IncomingMessage, link *entities.ClassifiedLink) {
	statusID := uc.reply(ctx, req.ChatID, consts.MsgYouTubeShortsStarted)

	artifact, err := uc.youtube.FetchShortForm(ctx, link.RawURL)
	if err != nil {
		uc.edit(ctx, req.ChatID, statusID, uc.failureMessage(err, consts.MsgYouTubeError))
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	defer uc.youtube.Cleanup(artifact)

	uc.edit(ctx, req.ChatID, statusID, consts.MsgUploading)

	if err := uc.sender.SendVideo(ctx, req.ChatID, artifact.Path); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to deliver Shorts video")
		uc.edit(ctx, req.ChatID, statusID, consts.MsgGeneralError)
		uc.publishFailure(ctx, req.UserID, link, pkgerrors.NewUploadFailed("shorts upload failed", err))
		return
	}

	uc.edit(ctx, req.ChatID, statusID, consts.MsgYouTubeShortsSuccess)
	uc.publishSuccess(ctx, req.UserID, link, []entities.DownloadedArtifact{artifact})
}

// runYouTubeFetch resumes a quality selection with the chosen itag
func (uc *UseCase) runYouTubeFetch(ctx context.Context, req *dto.CallbackRequest, sel *entities.PendingSelection) {
	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgDownloading)

	link := &entities.ClassifiedLink{RawURL: sel.URL, Platform: entities.PlatformYouTube, Kind: entities.KindReelOrVideo}

	artifact, err := uc.youtube.Fetch(ctx, sel.URL, req.Itag)
	if err != nil {
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, uc.failureMessage(err, consts.MsgYouTubeError))
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	defer uc.youtube.Cleanup(artifact)

	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgUploading)

	if err := uc.sender.SendVideo(ctx, sel.ChatID, artifact.Path); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to deliver YouTube video")
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgGeneralError)
		uc.publishFailure(ctx, req.UserID, link, pkgerrors.NewUploadFailed("video upload failed", err))
		return
	}

	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgYouTubeSuccess)
	uc.publishSuccess(ctx, req.UserID, link, []entities.DownloadedArtifact{artifact})
}

// runInstagramVideo resumes a reel flow with the video branch
func (uc *UseCase) runInstagramVideo(ctx context.Context, req *dto.CallbackRequest, sel *entities.PendingSelection) {
	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgDownloading)

	link := &entities.ClassifiedLink{RawURL: sel.URL, Platform: entities.PlatformInstagram, Kind: entities.KindReelOrVideo}

	artifacts, err := uc.instagram.DownloadPost(ctx, sel.URL)
	if err != nil {
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, uc.failureMessage(err, consts.MsgInstagramError))
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	defer uc.instagram.Cleanup(artifacts)

	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgUploading)

	if err := uc.deliverArtifacts(ctx, sel.ChatID, artifacts); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to deliver reel video")
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgGeneralError)
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}

	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgInstagramSuccess)
	uc.publishSuccess(ctx, req.UserID, link, artifacts)
}

// runInstagramAudio resumes a reel flow with the audio-extraction branch.
// The intermediate video is removed whether extraction succeeds or not.
func (uc *UseCase) runInstagramAudio(ctx context.Context, req *dto.CallbackRequest, sel *entities.PendingSelection) {
	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgAudioExtractionStarted)

	link := &entities.ClassifiedLink{RawURL: sel.URL, Platform: entities.PlatformInstagram, Kind: entities.KindReelOrVideo}

	artifacts, err := uc.instagram.DownloadPost(ctx, sel.URL)
	if err != nil {
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, uc.failureMessage(err, consts.MsgInstagramError))
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	defer uc.instagram.Cleanup(artifacts)

	video, ok := firstVideo(artifacts)
	if !ok {
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgAudioExtractionError)
		uc.publishFailure(ctx, req.UserID, link, pkgerrors.NewEmptyResult("post contains no video"))
		return
	}

	audio, err := uc.transcoder.Extract(ctx, video.Path)
	if err != nil {
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgAudioExtractionError)
		uc.publishFailure(ctx, req.UserID, link, err)
		return
	}
	defer uc.storage.Remove(audio.Path)

	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgUploading)

	if err := uc.sender.SendAudio(ctx, sel.ChatID, audio.Path, "audio"); err != nil {
		uc.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("Failed to deliver extracted audio")
		uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgGeneralError)
		uc.publishFailure(ctx, req.UserID, link, pkgerrors.NewUploadFailed("audio upload failed", err))
		return
	}

	uc.edit(ctx, sel.ChatID, sel.StatusMessageID, consts.MsgAudioExtractionSuccess)
	uc.publishSuccess(ctx, req.UserID, link, []entities.DownloadedArtifact{audio})
}

// deliverArtifacts picks the upload method by shape: one photo, one video,
// or a single album truncated to the Telegram group limit
func (uc *UseCase) deliverArtifacts(ctx context.Context, chatID int64, artifacts []entities.DownloadedArtifact) error {
	if len(artifacts) == 1 {
		a := artifacts[0]
		switch a.Kind {
		case entities.MediaVideo:
			return wrapUpload(uc.sender.SendVideo(ctx, chatID, a.Path))
		case entities.MediaAudio:
			return wrapUpload(uc.sender.SendAudio(ctx, chatID, a.Path, "audio"))
		default:
			return wrapUpload(uc.sender.SendPhoto(ctx, chatID, a.Path))
		}
	}

	if len(artifacts) > consts.MaxAlbumSize {
		artifacts = artifacts[:consts.MaxAlbumSize]
	}
	return wrapUpload(uc.sender.SendAlbum(ctx, chatID, artifacts))
}

func wrapUpload(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.NewUploadFailed("telegram upload failed", err)
}

func firstVideo(artifacts []entities.DownloadedArtifact) (entities.DownloadedArtifact, bool) {
	for _, a := range artifacts {
		if a.Kind == entities.MediaVideo {
			return a, true
		}
	}
	return entities.DownloadedArtifact{}, false
}

// failureMessage maps an error kind to the user-facing text for it
func (uc *UseCase) failureMessage(err error, fallback string) string {
	switch {
	case pkgerrors.IsAccessDenied(err):
		return consts.MsgInstagramPrivate
	case pkgerrors.IsNetwork(err):
		return consts.MsgNetworkError
	case pkgerrors.IsRateLimited(err):
		return consts.MsgRateLimitError
	default:
		return fallback
	}
}

// reply sends a new message; a send failure is logged and yields a zero
// message ID, later edits on it are no-ops at the transport layer
func (uc *UseCase) reply(ctx context.Context, chatID int64, text string) int {
	id, err := uc.sender.SendText(ctx, chatID, text)
	if err != nil {
		uc.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
	return id
}

func (uc *UseCase) edit(ctx context.Context, chatID int64, messageID int, text string) {
	if messageID == 0 {
		return
	}
	if err := uc.sender.EditText(ctx, chatID, messageID, text); err != nil {
		uc.logger.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("Failed to edit message")
	}
}

func (uc *UseCase) publishSuccess(ctx context.Context, userID int64, link *entities.ClassifiedLink, artifacts []entities.DownloadedArtifact) {
	var total int64
	for _, a := range artifacts {
		total += a.Size
	}

	event := &entities.DownloadEvent{
		UserID:     userID,
		Platform:   link.Platform,
		Kind:       link.Kind,
		URL:        link.RawURL,
		MediaCount: len(artifacts),
		TotalBytes: total,
	}
	if err := uc.producer.DownloadCompleted(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Msg("Failed to publish download completed event")
	}
}

func (uc *UseCase) publishFailure(ctx context.Context, userID int64, link *entities.ClassifiedLink, cause error) {
	event := &entities.DownloadEvent{
		UserID:      userID,
		Platform:    link.Platform,
		Kind:        link.Kind,
		URL:         link.RawURL,
		FailureKind: pkgerrors.KindOf(cause).String(),
	}
	if err := uc.producer.DownloadFailed(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Msg("Failed to publish download failed event")
	}
}
