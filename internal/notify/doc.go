// Package notify delivers feature-attributed messages to the user.
//
// A Message carries the plugin name, the feature name, an optional tag and
// the text. The host renders it in chat as "[Plugin] [Feature] text".
// Notifiers never return delivery failures to the caller; a message that
// cannot be delivered is logged and dropped.
package notify
