// Package monitoring serves a snapshot of an assembled platform over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/monitoring/web"
	"github.com/sarchlab/fdtplatform/platform"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns an assembled platform into a server that external tools can
// inspect.
type Monitor struct {
	portNumber  int
	openBrowser bool

	lock     sync.RWMutex
	platform *platform.Platform
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open its page in a browser once it serves.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterPlatform sets the platform to be monitored.
func (m *Monitor) RegisterPlatform(p *platform.Platform) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.platform = p
}

func (m *Monitor) snapshot() *platform.Platform {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.platform
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name:.+}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/memory", m.reportMemory)
	r.HandleFunc("/api/tree", m.dumpTree)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(web.Handler())

	return r
}

// StartServer starts the monitor as a web server and returns the address it
// listens on.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring platform with %s\n", url)

	go func() {
		err = http.Serve(listener, m.Router())
		dieOnErr(err)
	}()

	if m.openBrowser {
		err = browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url
}

func (m *Monitor) platformOr503(w http.ResponseWriter) *platform.Platform {
	p := m.snapshot()
	if p == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, err := w.Write([]byte("Platform not assembled"))
		dieOnErr(err)
	}

	return p
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	p := m.platformOr503(w)
	if p == nil {
		return
	}

	names := make([]string, 0, len(p.Components))
	for _, c := range p.Components {
		names = append(names, c.Name)
	}

	writeJSON(w, names)
}

type propertyDetail struct {
	Name  string
	Value string
}

type componentDetail struct {
	Name       string
	Compatible string
	Properties []propertyDetail
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	detail := m.findComponentOr404(w, name)
	if detail == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(detail)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	detail := m.findComponentOr404(w, req.CompName)
	if detail == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(detail)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) *componentDetail {
	p := m.platformOr503(w)
	if p == nil {
		return nil
	}

	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}

	for _, c := range p.Components {
		if c.Name == name {
			return describeComponent(p.Tree, c)
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func describeComponent(
	tree *fdt.Tree,
	c platform.ComponentInfo,
) *componentDetail {
	detail := &componentDetail{Name: c.Name, Compatible: c.Compatible}

	n, err := tree.Lookup(c.Name)
	if err != nil {
		return detail
	}

	for _, prop := range n.Properties() {
		detail.Properties = append(detail.Properties, propertyDetail{
			Name:  prop.Name,
			Value: fmt.Sprintf("%x", prop.Value),
		})
	}

	return detail
}

type regionRsp struct {
	Path    string `json:"path"`
	Address uint64 `json:"address"`
	Size    uint64 `json:"size"`
	Extent  uint64 `json:"extent"`
}

type memoryRsp struct {
	MemoryNode string      `json:"memory_node"`
	Created    bool        `json:"created"`
	FromSeed   bool        `json:"from_seed"`
	Requested  uint64      `json:"requested"`
	Effective  uint64      `json:"effective"`
	Regions    []regionRsp `json:"regions"`
}

func (m *Monitor) reportMemory(w http.ResponseWriter, _ *http.Request) {
	p := m.platformOr503(w)
	if p == nil {
		return
	}

	rsp := memoryRsp{
		MemoryNode: p.MemoryNode.Path,
		Created:    p.MemoryNode.Created(),
		FromSeed:   p.FromSeed,
		Requested:  p.RequestedSize,
		Effective:  p.MemorySize,
		Regions:    make([]regionRsp, 0, len(p.Regions)),
	}

	for _, r := range p.Regions {
		rsp.Regions = append(rsp.Regions, regionRsp{
			Path:    r.Path,
			Address: r.Address,
			Size:    r.Size,
			Extent:  r.Extent(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) dumpTree(w http.ResponseWriter, _ *http.Request) {
	p := m.platformOr503(w)
	if p == nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	err := p.Tree.WriteDTS(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
