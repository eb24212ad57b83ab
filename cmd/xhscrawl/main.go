// Command xhscrawl crawls xiaohongshu notes, comments, feeds and messages
// and exports the results.
package main

func main() {
	Execute()
}
