// Package telegram formats race schedule notifications and sends them through
// the Telegram Bot API.
//
// Messages are rendered in Telegram's HTML parse mode and split into payloads
// that each stay under a configurable character budget. Authentication requires
// a bot token (from @BotFather) and a chat ID or @channel username.
package telegram
