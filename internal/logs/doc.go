// Package logs reads metascraper's log file for the logs command: the last
// N lines, optionally filtered to one run id, and a follow loop that polls
// for appended lines.
package logs
