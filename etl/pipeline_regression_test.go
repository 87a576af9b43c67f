package etl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/models"
	"github.com/tribodata/oilwatch_backend/utils"
	"gorm.io/gorm"
)

func setupPipelineDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "oilwatch_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	return db
}

// Regression: MAX(sample_date) over an empty reports table is SQL NULL; the
// first-ever run must see no watermark instead of a scan failure.
func TestLoadWatermark_EmptyDatabase(t *testing.T) {
	db := setupPipelineDB(t)
	ctx := context.Background()

	watermark, err := loadWatermark(ctx, db)
	if err != nil {
		t.Fatalf("loadWatermark on empty db: %v", err)
	}
	if watermark != nil {
		t.Fatalf("expected nil watermark on empty db, got %v", watermark)
	}

	sample := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	report := models.Report{LabNumber: "WM-1", SampleDate: &sample, IsActive: utils.NewTrue()}
	if err := db.WithContext(ctx).Create(&report).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}

	watermark, err = loadWatermark(ctx, db)
	if err != nil {
		t.Fatalf("loadWatermark after seed: %v", err)
	}
	if watermark == nil || watermark.Format("2006-01-02") != "2025-12-15" {
		t.Fatalf("expected watermark 2025-12-15, got %v", watermark)
	}
}

func TestEntityResolver_FailuresNameEntityAndDoNotAbort(t *testing.T) {
	db := setupPipelineDB(t)
	ctx := context.Background()

	org := models.Organization{Name: "MINERA ANDINA S.A.", IsActive: utils.NewTrue()}
	if err := db.WithContext(ctx).Create(&org).Error; err != nil {
		t.Fatalf("seed organization: %v", err)
	}
	machine := models.Machine{
		OrganizationId: org.ID,
		Name:           "EXCAVADORA CAT 336",
		SerialNumber:   "SN-9981",
		IsActive:       utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&machine).Error; err != nil {
		t.Fatalf("seed machine: %v", err)
	}

	resolver := newEntityResolver(db)

	bad := &rowRecord{
		RowNumber:        3,
		OrganizationName: "EMPRESA FANTASMA",
		Report:           models.Report{LabNumber: "LAB-1"},
	}
	_, err := resolver.resolve(ctx, bad)
	if err == nil {
		t.Fatal("expected resolution failure for unknown organization")
	}
	re, ok := err.(*rowError)
	if !ok {
		t.Fatalf("expected *rowError, got %T", err)
	}
	if !strings.Contains(re.Message, "EMPRESA FANTASMA") {
		t.Fatalf("expected error to name the organization, got %q", re.Message)
	}
	if re.Row != 3 {
		t.Fatalf("expected row 3 in error, got %d", re.Row)
	}

	// The failed row must not poison the rows after it.
	good := &rowRecord{
		RowNumber:        4,
		OrganizationName: "minera andina s.a.",
		MachineName:      "excavadora cat 336",
		Report:           models.Report{LabNumber: "LAB-2", SerialNumberCode: "sn-9981"},
	}
	refs, err := resolver.resolve(ctx, good)
	if err != nil {
		t.Fatalf("resolve after failed row: %v", err)
	}
	if refs.Organization == nil || refs.Organization.ID != org.ID {
		t.Fatalf("expected organization %d, got %+v", org.ID, refs.Organization)
	}
	if refs.Machine == nil || refs.Machine.ID != machine.ID {
		t.Fatalf("expected machine %d, got %+v", machine.ID, refs.Machine)
	}
}

func TestEntityResolver_AmbiguousMachine(t *testing.T) {
	db := setupPipelineDB(t)
	ctx := context.Background()

	org := models.Organization{Name: "TRANSPORTES DEL SUR", IsActive: utils.NewTrue()}
	if err := db.WithContext(ctx).Create(&org).Error; err != nil {
		t.Fatalf("seed organization: %v", err)
	}
	for i := 0; i < 2; i++ {
		m := models.Machine{
			OrganizationId: org.ID,
			Name:           "VOLVO FH",
			SerialNumber:   "SN-1",
			IsActive:       utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&m).Error; err != nil {
			t.Fatalf("seed machine %d: %v", i, err)
		}
	}

	resolver := newEntityResolver(db)
	rec := &rowRecord{
		RowNumber:        5,
		OrganizationName: "TRANSPORTES DEL SUR",
		MachineName:      "VOLVO FH",
		Report:           models.Report{LabNumber: "LAB-3", SerialNumberCode: "SN-1"},
	}
	_, err := resolver.resolve(ctx, rec)
	if err == nil {
		t.Fatal("expected ambiguity failure for duplicated machine")
	}
	if !strings.Contains(err.Error(), "Multiple machines found") {
		t.Fatalf("expected distinct ambiguity message, got %q", err.Error())
	}
}

func TestPersistBatch_StrictPairsAndAtomicity(t *testing.T) {
	db := setupPipelineDB(t)
	ctx := context.Background()

	recs := []*rowRecord{
		{Report: models.Report{LabNumber: "P-1"}, Analysis: models.LabAnalysis{IronFe: 10}},
		{Report: models.Report{LabNumber: "P-2"}, Analysis: models.LabAnalysis{IronFe: 20}},
	}
	created, err := persistBatch(ctx, db, recs, "test")
	if err != nil {
		t.Fatalf("persistBatch: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}

	var reportCount, analysisCount int64
	if err := db.WithContext(ctx).Model(&models.Report{}).Count(&reportCount).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if err := db.WithContext(ctx).Model(&models.LabAnalysis{}).Count(&analysisCount).Error; err != nil {
		t.Fatalf("count analyses: %v", err)
	}
	if reportCount != 2 || analysisCount != 2 {
		t.Fatalf("expected strict 1:1 (2 reports, 2 analyses), got %d/%d", reportCount, analysisCount)
	}

	var analysis models.LabAnalysis
	if err := db.WithContext(ctx).
		Joins("JOIN reports ON reports.id = lab_analyses.report_id").
		Where("reports.lab_number = ?", "P-2").
		Take(&analysis).Error; err != nil {
		t.Fatalf("fetch analysis for P-2: %v", err)
	}
	if analysis.IronFe != 20 {
		t.Fatalf("analysis linked to wrong report: iron=%d", analysis.IronFe)
	}

	// A batch that trips the unique lab_number must leave nothing behind.
	again := []*rowRecord{
		{Report: models.Report{LabNumber: "P-3"}, Analysis: models.LabAnalysis{IronFe: 30}},
		{Report: models.Report{LabNumber: "P-1"}, Analysis: models.LabAnalysis{IronFe: 40}},
	}
	if _, err := persistBatch(ctx, db, again, "test"); err == nil {
		t.Fatal("expected duplicate lab number to fail the batch")
	}

	if err := db.WithContext(ctx).Model(&models.Report{}).Count(&reportCount).Error; err != nil {
		t.Fatalf("recount reports: %v", err)
	}
	if err := db.WithContext(ctx).Model(&models.LabAnalysis{}).Count(&analysisCount).Error; err != nil {
		t.Fatalf("recount analyses: %v", err)
	}
	if reportCount != 2 || analysisCount != 2 {
		t.Fatalf("expected rollback to keep 2/2, got %d/%d", reportCount, analysisCount)
	}
	var orphaned int64
	if err := db.WithContext(ctx).Model(&models.Report{}).Where("lab_number = ?", "P-3").Count(&orphaned).Error; err != nil {
		t.Fatalf("count P-3: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("expected P-3 rolled back, found %d rows", orphaned)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("oilwatch-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=oilwatch_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
