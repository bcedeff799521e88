// Command overlapctl builds employee pair overlap reports from local files.
package main

func main() {
	execute()
}
