package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go runtime version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Backend models
type ExitData struct {
	PID      int       `json:"pid,omitempty" example:"4242" doc:"Process ID of the exited backend, absent on spawn failure"`
	ExitCode int       `json:"exit_code" example:"0" doc:"Exit code, -1 when the process had none"`
	Signal   string    `json:"signal,omitempty" example:"terminated" doc:"Terminating signal, if any"`
	Error    string    `json:"error,omitempty" example:"exec: \"python3\": executable file not found in $PATH" doc:"Spawn or wait error"`
	At       time.Time `json:"at" doc:"When the exit was observed"`
}

type BackendData struct {
	State      string     `json:"state" example:"running" enum:"running,not_running" doc:"Supervisor state"`
	PID        int        `json:"pid,omitempty" example:"4242" doc:"Process ID while running"`
	StartedAt  *time.Time `json:"started_at,omitempty" doc:"When the running backend was spawned"`
	StartCount int        `json:"start_count" example:"1" doc:"Successful spawns since the shell started"`
	Command    string     `json:"command" example:"python3 -m uvicorn main:app --host 127.0.0.1 --port 8000" doc:"Command line"`
	Dir        string     `json:"dir,omitempty" example:"/opt/app/backend" doc:"Working directory"`
	URL        string     `json:"url,omitempty" example:"http://127.0.0.1:8000" doc:"Address the backend serves on"`
	LastExit   *ExitData  `json:"last_exit,omitempty" doc:"Most recent termination or spawn failure"`
}

type BackendResponse struct {
	Body BackendData
}

// Lifecycle action models
type ActionData struct {
	Status string `json:"status" example:"accepted" doc:"Request status"`
	Action string `json:"action" example:"activate" enum:"activate,quit,close-window" doc:"Queued lifecycle action"`
}

type ActionResponse struct {
	Body ActionData
}

// Window models
type WindowsData struct {
	IDs   []int `json:"ids" doc:"Open window IDs in creation order"`
	Count int   `json:"count" example:"1" doc:"Number of open windows"`
}

type WindowsResponse struct {
	Body WindowsData
}

type WindowCloseRequest struct {
	ID int `path:"id" minimum:"1" doc:"Window ID"`
}
