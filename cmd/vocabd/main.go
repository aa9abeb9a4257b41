// Command vocabd serves and manages a spaced-repetition vocabulary.
package main

func main() {
	Execute()
}
