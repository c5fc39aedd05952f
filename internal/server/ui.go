package server

import (
	"html/template"
	"net/http"
	"time"
)

// handleDashboard serves the main dashboard HTML page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var jobList []JobSummary
	var execs []ExecutionRecord
	var stats *StatsResponse

	if s.jobs != nil {
		fetched, err := s.jobs.List(ctx)
		if err != nil {
			s.logger.Error("failed to get jobs for dashboard", "error", err)
		} else {
			jobList = fetched
		}
	}

	if s.history != nil {
		fetched, err := s.history.GetExecutions(ctx, nil, 20)
		if err != nil {
			s.logger.Error("failed to get history for dashboard", "error", err)
		} else {
			execs = fetched
		}

		fetchedStats, err := s.history.GetStats(ctx)
		if err != nil {
			s.logger.Error("failed to get stats for dashboard", "error", err)
		} else {
			stats = fetchedStats
		}
	}

	data := DashboardData{
		Title:      "Sweeprun Dashboard",
		Jobs:       jobList,
		Executions: execs,
		Stats:      stats,
		Version:    version,
		Uptime:     s.Uptime(),
	}

	tmpl := template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(dashboardTemplate))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render dashboard template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title      string
	Jobs       []JobSummary
	Executions []ExecutionRecord
	Stats      *StatsResponse
	Version    string
	Uptime     string
}

// templateFuncs provides custom template functions
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil {
			return "N/A"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"formatSeconds": func(sec float64) string {
		d := time.Duration(sec * float64(time.Second))
		return d.Round(time.Millisecond).String()
	},
	"statusBadge": func(status string) template.HTML {
		switch status {
		case "completed":
			return template.HTML(`<span class="badge badge-success">completed</span>`)
		case "failed":
			return template.HTML(`<span class="badge badge-danger">failed</span>`)
		case "running":
			return template.HTML(`<span class="badge badge-info">running</span>`)
		case "cancelled":
			return template.HTML(`<span class="badge badge-warning">cancelled</span>`)
		default:
			return template.HTML(`<span class="badge badge-secondary">` + template.HTMLEscapeString(status) + `</span>`)
		}
	},
	"truncate": func(s string, max int) string {
		if len(s) <= max {
			return s
		}
		return s[:max] + "..."
	},
}

// dashboardTemplate is the main dashboard HTML template
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #f5f5f5; color: #333; line-height: 1.6; }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        header { background: #2c3e50; color: white; padding: 20px 0; margin-bottom: 30px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        header h1 { font-size: 28px; margin-bottom: 5px; }
        header .meta { font-size: 14px; opacity: 0.8; }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; margin-bottom: 30px; }
        .stat-card { background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .stat-card h3 { font-size: 14px; color: #7f8c8d; margin-bottom: 8px; text-transform: uppercase; }
        .stat-card .value { font-size: 32px; font-weight: bold; color: #2c3e50; }
        .section { background: white; padding: 25px; border-radius: 8px; margin-bottom: 30px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .section h2 { font-size: 20px; margin-bottom: 20px; color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
        table { width: 100%; border-collapse: collapse; }
        th { background: #f8f9fa; text-align: left; padding: 12px; font-weight: 600; border-bottom: 2px solid #dee2e6; }
        td { padding: 12px; border-bottom: 1px solid #dee2e6; }
        tr:hover { background: #f8f9fa; }
        .badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: 600; text-transform: uppercase; }
        .badge-success { background: #d4edda; color: #155724; }
        .badge-danger { background: #f8d7da; color: #721c24; }
        .badge-info { background: #d1ecf1; color: #0c5460; }
        .badge-warning { background: #fff3cd; color: #856404; }
        .badge-secondary { background: #e2e3e5; color: #383d41; }
        .empty { text-align: center; padding: 40px; color: #7f8c8d; }
        code { background: #f8f9fa; padding: 2px 6px; border-radius: 3px; font-family: monospace; font-size: 13px; }
    </style>
</head>
<body>
    <header>
        <div class="container">
            <h1>{{.Title}}</h1>
            <div class="meta">Version: {{.Version}} | Uptime: {{.Uptime}}</div>
        </div>
    </header>

    <div class="container">
        {{if .Stats}}
        <div class="stats">
            <div class="stat-card">
                <h3>Registered Jobs</h3>
                <div class="value">{{.Stats.RegisteredJobs}}</div>
            </div>
            <div class="stat-card">
                <h3>Running</h3>
                <div class="value">{{.Stats.RunningJobs}}</div>
            </div>
            <div class="stat-card">
                <h3>Completed</h3>
                <div class="value">{{.Stats.Completed}}</div>
            </div>
            <div class="stat-card">
                <h3>Failed</h3>
                <div class="value">{{.Stats.Failed}}</div>
            </div>
        </div>
        {{end}}

        <div class="section">
            <h2>Jobs ({{len .Jobs}})</h2>
            {{if .Jobs}}
            <table>
                <thead>
                    <tr>
                        <th>Job ID</th>
                        <th>Name</th>
                        <th>Run Folder</th>
                        <th>Started</th>
                        <th>Ended</th>
                        <th>Status</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Jobs}}
                    <tr>
                        <td><code>{{truncate .JobID 12}}</code></td>
                        <td>{{.DisplayName}}</td>
                        <td><code>{{truncate .RunFolder 50}}</code></td>
                        <td>{{formatTime .StartedAt}}</td>
                        <td>{{formatTimePtr .EndedAt}}</td>
                        <td>{{statusBadge .Status}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{else}}
            <div class="empty">No jobs launched in this session</div>
            {{end}}
        </div>

        <div class="section">
            <h2>Recent Executions ({{len .Executions}})</h2>
            {{if .Executions}}
            <table>
                <thead>
                    <tr>
                        <th>Job ID</th>
                        <th>Name</th>
                        <th>Started</th>
                        <th>Duration</th>
                        <th>Status</th>
                        <th>Error</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Executions}}
                    <tr>
                        <td><code>{{truncate .JobID 12}}</code></td>
                        <td>{{.DisplayName}}</td>
                        <td>{{formatTime .StartedAt}}</td>
                        <td>{{formatSeconds .DurationSec}}</td>
                        <td>{{statusBadge .Status}}</td>
                        <td>{{truncate .Error 60}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{else}}
            <div class="empty">No finished executions yet</div>
            {{end}}
        </div>
    </div>
</body>
</html>`
