// Package notifier delivers race schedule updates to Telegram, Twitter or
// standard output.
//
// Every channel implements Notifier and receives the same Update: the capture
// time, the full current race list and the diff against the previous snapshot.
package notifier
