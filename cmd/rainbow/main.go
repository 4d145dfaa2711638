// Command rainbow is the rainbow plugin. It builds like cmd/fpscounter.
package main

func main() {}
