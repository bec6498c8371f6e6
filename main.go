package main

import "github.com/Panahifarah/kalpak/cmd"

func main() {
	cmd.Execute()
}
