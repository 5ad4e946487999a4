// Package main is ragctl, an operator CLI for the document pipeline API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ragctl",
		Usage: "operate the document pipeline service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the API service",
				Value:   "http://localhost:8000",
				EnvVars: []string{"RAGPIPE_API_URL"},
			},
			&cli.StringFlag{
				Name:    "org",
				Usage:   "organization ID sent as X-Organization-Id",
				EnvVars: []string{"RAGPIPE_ORG"},
			},
			&cli.StringFlag{
				Name:    "user",
				Usage:   "user ID sent as X-User-Id",
				EnvVars: []string{"RAGPIPE_USER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create-bucket",
				Usage: "provision the organization's bucket",
				Action: func(c *cli.Context) error {
					return call(c, http.MethodPost, "/api/create-bucket", nil)
				},
			},
			{
				Name:  "buckets",
				Usage: "list all buckets",
				Action: func(c *cli.Context) error {
					return call(c, http.MethodGet, "/api/buckets", nil)
				},
			},
			{
				Name:  "stats",
				Usage: "show multi-tenant vector store statistics",
				Action: func(c *cli.Context) error {
					return call(c, http.MethodGet, "/api/organizations/stats", nil)
				},
			},
			{
				Name:  "reindex",
				Usage: "dispatch indexing for an uploaded document",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "doc-id", Required: true},
					&cli.StringFlag{Name: "object-path", Required: true},
				},
				Action: func(c *cli.Context) error {
					return call(c, http.MethodPost, "/api/index-doc", map[string]string{
						"doc_id":      c.String("doc-id"),
						"object_path": c.String("object-path"),
					})
				},
			},
			{
				Name:      "run",
				Usage:     "show an ingestion run",
				ArgsUsage: "<run-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: ragctl run <run-id>", 1)
					}
					return call(c, http.MethodGet, "/api/runs/"+c.Args().First(), nil)
				},
			},
			{
				Name:  "query",
				Usage: "ask a question",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "the question", Required: true},
					&cli.StringSliceFlag{
						Name:  "target",
						Usage: "query target (docstore, sql); repeatable",
						Value: cli.NewStringSlice("docstore"),
					},
				},
				Action: func(c *cli.Context) error {
					return call(c, http.MethodPost, "/api/query", map[string]any{
						"query":   c.String("q"),
						"targets": c.StringSlice("target"),
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// call sends one request to the API and pretty-prints the JSON response.
func call(c *cli.Context, method, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.Context, method, c.String("api")+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if org := c.String("org"); org != "" {
		req.Header.Set("X-Organization-Id", org)
	}
	if user := c.String("user"); user != "" {
		req.Header.Set("X-User-Id", user)
	}

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		pretty.Write(data)
	}
	fmt.Println(pretty.String())

	if resp.StatusCode >= 400 {
		return cli.Exit(fmt.Sprintf("request failed with status %d", resp.StatusCode), 1)
	}
	return nil
}
