package consts

// User-visible messages
const (
	StartMessage = `👋 <b>Welcome to ClipFlow Bot!</b>

Send me an Instagram or YouTube link and I will fetch the media for you.

<b>Supported links:</b>
• Instagram posts, reels and stories
• YouTube videos and Shorts

<b>Commands:</b>
/help - show help
/about - about this bot`

	HelpMessage = `📚 <b>How to use:</b>

Just paste a link into the chat:
• Instagram post or reel: I download the photos and videos
• Instagram reel: you can also extract just the audio
• YouTube video: pick a quality and I fetch it
• YouTube Shorts: downloaded right away

Files above the Telegram upload limit (50 MB) cannot be delivered.`

	AboutMessage = `🤖 <b>ClipFlow Bot</b>

Downloads media from Instagram and YouTube and sends it back to you.
Nothing is stored after delivery.`

	MsgNoLinkFound     = "🔍 I could not find a link in your message. Send me an Instagram or YouTube link."
	MsgUnsupportedLink = "❌ This link is not supported. I can handle Instagram and YouTube links only."

	MsgInstagramStarted = "⏳ Downloading from Instagram..."
	MsgInstagramSuccess = "✅ Done! Instagram content delivered."
	MsgInstagramError   = "❌ Could not download this Instagram content. Check the link and try again."
	MsgInstagramPrivate = "🔒 This account is private. I can only download from public accounts."

	MsgYouTubeStarted       = "⏳ Fetching video information from YouTube..."
	MsgYouTubeShortsStarted = "⏳ Downloading YouTube Shorts..."
	MsgYouTubeSuccess       = "✅ Done! YouTube video delivered."
	MsgYouTubeShortsSuccess = "✅ Done! YouTube Shorts delivered."
	MsgYouTubeError         = "❌ Could not download this YouTube video. Check the link and try again."
	MsgQualitySelection     = "🎬 Choose a quality:"
	MsgVideoOrAudio         = "🎬 What should I extract?"
	MsgDownloading          = "⏳ Downloading..."

	MsgUploading = "📤 Uploading to Telegram..."

	MsgAudioExtractionStarted = "⏳ Downloading video and extracting audio..."
	MsgAudioExtractionSuccess = "✅ Done! Audio delivered."
	MsgAudioExtractionError   = "❌ Could not extract audio from this video."

	MsgNetworkError   = "🌐 Network error while talking to the content source. Please try again."
	MsgRateLimitError = "🚦 The content source is rate limiting us. Please try again later."
	MsgGeneralError   = "❌ Something went wrong. Please try again."
)

// Inline keyboard labels
const (
	ChoiceVideoLabel = "🎬 Video"
	ChoiceAudioLabel = "🎵 Audio only"
)
