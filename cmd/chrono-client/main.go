package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/quic-go/quic-go/http3"
)

func main() {
	var (
		baseURL  string
		path     string
		parse    string
		rate     string
		useHTTP3 bool
		insecure bool
	)
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "Server base URL")
	flag.StringVar(&path, "path", "/health", "Path to GET when -parse is not set")
	flag.StringVar(&parse, "parse", "", "Timecode to parse, e.g. 01:00:00:00")
	flag.StringVar(&rate, "rate", "", "Frame rate for -parse, e.g. \"29.97df\"")
	flag.BoolVar(&useHTTP3, "h3", false, "Use HTTP/3 (requires an https URL)")
	flag.BoolVar(&insecure, "insecure", true, "Skip TLS certificate verification")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	if useHTTP3 {
		rt := &http3.RoundTripper{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecure,
			},
		}
		defer rt.Close()
		client.Transport = rt
	}

	base := strings.TrimRight(baseURL, "/")

	var (
		resp *http.Response
		err  error
	)
	if parse != "" {
		body, _ := json.Marshal(map[string]string{"timecode": parse, "rate": rate})
		fmt.Printf("Parsing %q at %s\n", parse, base)
		resp, err = client.Post(base+"/api/v1/timecode/parse", "application/json", bytes.NewReader(body))
	} else {
		fmt.Printf("Requesting %s%s\n", base, path)
		resp, err = client.Get(base + path)
	}
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Protocol: %s\n", resp.Proto)
	if alt := resp.Header.Get("Alt-Svc"); alt != "" {
		fmt.Printf("Alt-Svc: %s\n", alt)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	fmt.Printf("\nBody:\n%s\n", body)
}
