package viz

import (
	"bytes"
	"fmt"
	"html/template"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))

// cytoscapeCDN is the script tag loading Cytoscape.js.
const cytoscapeCDN = `<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>`

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "force", "circle", "concentric" or "grid"
	Title  string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Layout: "force", Title: "Coauthor network"}
}

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"force", "circle", "concentric", "grid"}

// templateData holds data for the HTML template.
type templateData struct {
	Title     string
	ScriptTag template.HTML
	GraphJSON template.JS
	Layout    string
	Empty     bool
}

// GenerateHTML generates a self-contained HTML page for the graph.
func GenerateHTML(g *GraphData, opts HTMLOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	layout, err := layoutToCytoscape(opts.Layout)
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:     opts.Title,
		ScriptTag: template.HTML(cytoscapeCDN),
		GraphJSON: template.JS("null"),
		Layout:    layout,
		Empty:     g.IsEmpty(),
	}
	if data.Title == "" {
		data.Title = DefaultOptions().Title
	}
	if !data.Empty {
		graphJSON, err := g.ToCytoscapeJSON()
		if err != nil {
			return "", err
		}
		data.GraphJSON = template.JS(graphJSON)
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// layoutToCytoscape converts user-facing layout names to Cytoscape.js names.
func layoutToCytoscape(layout string) (string, error) {
	switch layout {
	case "", "force":
		return "cose", nil
	case "circle", "concentric", "grid":
		return layout, nil
	default:
		return "", fmt.Errorf("invalid layout %q: must be force, circle, concentric, or grid", layout)
	}
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  {{if not .Empty}}{{.ScriptTag}}{{end}}
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      background: #f5f5f5;
    }
    #cy { width: 100%; height: 100vh; background: white; }
    #info {
      position: absolute;
      top: 12px;
      left: 12px;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      font-size: 13px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
    }
    .empty { text-align: center; color: #666; padding-top: 30vh; }
  </style>
</head>
<body>
{{if .Empty}}
  <div class="empty">
    <h2>No coauthors</h2>
    <p>Nothing to draw for this author with the current filters.</p>
  </div>
{{else}}
  <div id="cy"></div>
  <div id="info">{{.Title}}</div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const layout = "{{.Layout}}";
      const info = document.getElementById('info');

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          {
            selector: 'node',
            style: {
              'background-color': '#4A90D9',
              'label': 'data(label)',
              'font-size': '10px',
              'text-valign': 'bottom',
              'text-margin-y': '4px',
              'width': 'mapData(papers, 1, 50, 16, 60)',
              'height': 'mapData(papers, 1, 50, 16, 60)'
            }
          },
          {
            selector: 'node[depth = 0]',
            style: { 'background-color': '#E8923A', 'font-weight': 'bold' }
          },
          {
            selector: 'edge',
            style: {
              'line-color': '#bbb',
              'curve-style': 'haystack',
              'width': 'mapData(weight, 1, 10, 1, 8)'
            }
          },
          {
            selector: '.faded',
            style: { 'opacity': 0.15 }
          }
        ],
        layout: layout === 'concentric'
          ? { name: 'concentric', concentric: n => -n.data('depth'), levelWidth: () => 1 }
          : { name: layout, animate: false }
      });

      cy.on('mouseover', 'node', evt => {
        const n = evt.target;
        const hood = n.closedNeighborhood();
        cy.elements().not(hood).addClass('faded');
        info.textContent = n.data('label') + ': ' + n.data('papers') + ' papers, ' + n.degree() + ' coauthors shown';
      });
      cy.on('mouseout', 'node', () => {
        cy.elements().removeClass('faded');
        info.textContent = {{.Title}};
      });
      cy.on('mouseover', 'edge', evt => {
        const e = evt.target;
        info.textContent = e.source().data('label') + ' & ' + e.target().data('label') + ': ' + e.data('weight') + ' shared papers';
      });
    })();
  </script>
{{end}}
</body>
</html>
`
