package main

import "github.com/RubachokBoss/plagiarism-checker/workbench/internal/cli"

func main() {
	cli.Execute()
}
