package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// meta is for describing the position/info for a command doc page
type meta struct {
	root     bool
	title    string
	navOrder int
	parent   string
}

// metaMap is for mapping the filename of a page to its meta
var metaMap = map[string]meta{
	"sraprep":       {true, "sraprep", 0, ""},
	"sraprep_build": {false, "build", 0, "sraprep"},
	"sraprep_plan":  {false, "plan", 1, "sraprep"},
}

// docsCmd writes Markdown pages for every command to a directory
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown documentation for each command",
	Args:   cobra.MaximumNArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "./docs"
		if len(args) > 0 {
			dir = args[0]
		}
		return makeDocs(dir)
	},
}

func init() {
	RootCmd.AddCommand(docsCmd)
}

// makeDocs parses the custom commands and outputs Markdown documentation files
func makeDocs(dir string) error {
	RootCmd.DisableAutoGenTag = true
	return doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler)
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	m, ok := metaMap[pageName(filename)]
	if !ok {
		return ""
	}

	if m.root {
		return fmt.Sprintf(rootPage, m.title, m.navOrder)
	}
	return fmt.Sprintf(childPage, m.title, m.parent, m.navOrder)
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := pageName(filename)
	if base == "sraprep" {
		return "/"
	}
	return base
}

func pageName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
