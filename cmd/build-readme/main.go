package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/keshon/beatsbot/internal/command"
	"github.com/keshon/beatsbot/internal/config"
	"github.com/keshon/beatsbot/pkg/cmd"
)

type CmdInfo struct {
	Usage       string
	Description string
	Category    string
}

func main() {
	prefix := "!"
	router := command.NewRouter(nil, nil, prefix, nil)

	sections := make(map[string][]CmdInfo)
	for _, c := range router.Commands() {
		info := CmdInfo{Usage: prefix + c.Name(), Description: c.Description()}
		if meta, ok := cmd.Root(c).(command.Meta); ok {
			info.Category = meta.Category()
			for _, arg := range meta.Args() {
				info.Usage += fmt.Sprintf(" [%s]", arg)
			}
			if bang := meta.BangHelp(); bang != "" {
				info.Description += fmt.Sprintf(" `%s` %s", strings.Repeat(prefix, 2), bang)
			}
		}
		sections[info.Category] = append(sections[info.Category], info)
	}

	categories := make([]string, 0, len(sections))
	for cat := range sections {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		return config.CategoryWeights[categories[i]] < config.CategoryWeights[categories[j]]
	})

	tmplData, err := os.ReadFile("README.md.tmpl")
	if err != nil {
		panic(err)
	}

	tmpl, err := template.New("readme").Parse(string(tmplData))
	if err != nil {
		panic(err)
	}

	var buf bytes.Buffer
	for _, cat := range categories {
		fmt.Fprintf(&buf, "### %s\n\n", cat)
		for _, c := range sections[cat] {
			fmt.Fprintf(&buf, "* **`%s`**\n  %s\n\n", c.Usage, c.Description)
		}
	}

	data := map[string]any{
		"CommandSections": buf.String(),
		"Prefix":          prefix,
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		panic(err)
	}

	if err := os.WriteFile("README.md", out.Bytes(), 0644); err != nil {
		panic(err)
	}
}
