package utils

import (
	"bytes"
	"strings"

	"phishlab/models"

	"golang.org/x/net/html"
)

var usernameHints = []string{"user", "email", "login", "mail", "correo", "usuario"}

// InspectPage walks a landing page and reports which credential fields its
// forms expose. Parse errors yield an empty report.
func InspectPage(body []byte) models.PageReport {
	var report models.PageReport

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return report
	}

	var walk func(n *html.Node, inForm bool)
	walk = func(n *html.Node, inForm bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "form":
				report.Forms++
				inForm = true
			case "input":
				if inForm {
					inspectInput(n, &report)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inForm)
		}
	}
	walk(doc, false)

	return report
}

func inspectInput(n *html.Node, report *models.PageReport) {
	var inputType, name string
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "type":
			inputType = strings.ToLower(attr.Val)
		case "name":
			name = strings.ToLower(attr.Val)
		}
	}

	if inputType == "password" || name == "password" {
		report.HasPasswordField = true
		return
	}
	for _, hint := range usernameHints {
		if strings.Contains(name, hint) || inputType == "email" {
			report.HasUsernameField = true
			return
		}
	}
}
