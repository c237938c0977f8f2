package presenter

// User-facing messages.
const (
	TextAskCity        = "🌆 Enter your city:"
	TextCityNotFound   = "😔 I dont have enough information about this city!"
	TextAskCount       = "📝 Enter the number of hotels:"
	TextFullResults    = "Your hotels:"
	TextPartialResults = "😔 Unfortunately I could not find enough hotels for you, but here are some of those I have found:"
	TextNoResults      = "❌ No hotels for the given criteria were found ❌\nMake sure that all data are entered correctly!"
	TextHistoryHeader  = "📖 Your history of requests:"
	TextHistoryEmpty   = "📖 Your history of requests is empty!"
	TextHistoryFailed  = "😔 I could not load your history right now. Please try again later."
	TextApology        = "😔 Something went wrong while searching for hotels. Please try again later."
	TextCancelled      = "👌 The search was cancelled."
	TextNothingPending = "🤷 There is nothing to cancel."
	TextAbandoned      = "😔 Too many invalid answers, the search was cancelled.\nType /lowprice or /highprice to start again."
	TextUnknown        = "😔 I don't understand you.\nType /help to see the list of commands"
	TextRateLimited    = "⏳ Too many messages, please slow down."
	TextHelp           = "📌 My commands:\n\n" +
		"📉 /lowprice - show top cheap hotels\n" +
		"💷 /highprice - show top premium hotels\n" +
		"📖 /history - show the history of requested hotels"
)
