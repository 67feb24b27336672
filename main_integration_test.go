package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agriconnect/backend/internal/auth"
)

const (
	testAppBinary         = "./agriconnect_test_app"
	testAppPort           = "8089"
	testServiceApiPortApi = "8091"
	testServiceApiPortBg  = "8092"
	testAppURL            = "http://localhost:" + testAppPort
	testServiceApiURL     = "http://localhost:" + testServiceApiPortApi
	testDbName            = "agriconnect_itest"
	startupTimeout        = 15 * time.Second
	pingEndpoint          = testAppURL + "/v1/ping"

	adminEmail    = "admin@agriconnect.test"
	adminPassword = "AdminP@ssw0rd123"
)

// integrationReady is false when the environment (Mongo/Redis) is not
// available; every test then skips instead of failing.
var integrationReady = false

// TestMain manages the setup and teardown of the integration test environment.
func TestMain(m *testing.M) {
	defer func() {
		_ = os.Remove(testAppBinary)
	}()

	godotenv.Load()
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Println("Integration Test Setup: MONGO_URI not set, skipping integration tests.")
		os.Exit(m.Run())
	}

	log.Println("Integration Test Setup: Building application...")
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		os.Exit(1)
	}

	if err := seedTestData(mongoURI); err != nil {
		log.Printf("Failed to seed test data: %v", err)
		os.Exit(1)
	}
	defer cleanupTestData(mongoURI)

	commonEnv := []string{
		"MONGO_URI=" + mongoURI,
		"MONGO_DB_NAME=" + testDbName,
		"JWT_SECRET=integration-test-secret",
		"GIN_MODE=release",
		"MOCK_SERVICES=true",
		"REDIS_ADDR=" + envOr("REDIS_ADDR", "localhost:6379"),
		"SMTP_FROM_ADDRESS=test@agriconnect.test",
		"RATE_LIMIT_SOFT_BUCKET_SIZE=100",
		"RATE_LIMIT_SOFT_REFILL_RATE=100",
		"RATE_LIMIT_HARD_BUCKET_SIZE=200",
		"RATE_LIMIT_HARD_REFILL_RATE=200",
		"USER_DAILY_REQUEST_LIMIT=50",
		"VENDOR_DAILY_REQUEST_LIMIT=50",
	}

	// --- Start API Process ---
	apiCmd := exec.Command(testAppBinary, "-m", "api")
	apiCmd.Env = append(os.Environ(), append(commonEnv,
		"API_PORT="+testAppPort,
		"SERVICE_API_PORT="+testServiceApiPortApi,
	)...)
	apiCmd.Stderr = os.Stderr
	apiCmd.Stdout = os.Stdout

	log.Println("Integration Test Setup: Starting API process...")
	if err := apiCmd.Start(); err != nil {
		log.Printf("Failed to start API process: %v", err)
		os.Exit(1)
	}

	// --- Start Background Worker Process ---
	bgCmd := exec.Command(testAppBinary, "-m", "bg")
	bgCmd.Env = append(os.Environ(), append(commonEnv,
		"SERVICE_API_PORT="+testServiceApiPortBg,
	)...)
	bgCmd.Stderr = os.Stderr
	bgCmd.Stdout = os.Stdout

	log.Println("Integration Test Setup: Starting Background Worker process...")
	if err := bgCmd.Start(); err != nil {
		_ = apiCmd.Process.Kill()
		log.Printf("Failed to start Background Worker process: %v", err)
		os.Exit(1)
	}

	defer func() {
		log.Println("Integration Test Teardown: Shutting down application processes...")
		for _, cmd := range []*exec.Cmd{bgCmd, apiCmd} {
			if processErr := cmd.Process.Signal(syscall.SIGTERM); processErr != nil {
				_ = cmd.Process.Kill()
			} else {
				_, _ = cmd.Process.Wait()
			}
		}
		log.Println("Integration Test Teardown: Application processes stopped.")
	}()

	// Wait for the API application to be ready by polling the ping endpoint
	log.Printf("Integration Test Setup: Waiting for API application at %s...", pingEndpoint)
	startTime := time.Now()
	for time.Since(startTime) < startupTimeout {
		resp, err := http.Get(pingEndpoint)
		if err == nil && resp.StatusCode == http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if string(bodyBytes) == "pong" {
				integrationReady = true
				break
			}
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !integrationReady {
		log.Printf("Application failed to start within %v", startupTimeout)
		os.Exit(1)
	}

	// Brief pause so the background worker finishes registering its handlers
	time.Sleep(2 * time.Second)

	exitCode := m.Run()
	log.Printf("Integration Test Teardown: Tests finished with exit code %d.", exitCode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireReady(t *testing.T) {
	t.Helper()
	if !integrationReady {
		t.Skip("Integration environment not available")
	}
}

// --- HTTP helpers ---

func doJSON(t *testing.T, method, path, jwtToken string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, testAppURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+jwtToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var respBody map[string]interface{}
	if len(respBytes) > 0 {
		if unmarshalErr := json.Unmarshal(respBytes, &respBody); unmarshalErr != nil {
			respBody = map[string]interface{}{"raw_body": string(respBytes)}
		}
	}
	return resp.StatusCode, respBody
}

// registerAndLogin creates an account through the public API and returns the
// user's JWT and ID.
func registerAndLogin(t *testing.T, name, role string) (jwtToken, userID, email string) {
	t.Helper()
	email = fmt.Sprintf("%s_%d@agriconnect.test", role, time.Now().UnixNano())
	password := "StrongP@ssw0rd123"

	code, _ := doJSON(t, "POST", "/v1/register", "", map[string]interface{}{
		"name": name, "email": email, "password": password, "role": role,
	})
	require.Equal(t, http.StatusCreated, code, "registration should succeed for %s", email)

	code, loginBody := doJSON(t, "POST", "/v1/login", "", map[string]interface{}{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, code, "login should succeed for %s", email)
	jwtToken, _ = loginBody["token"].(string)
	require.NotEmpty(t, jwtToken)
	user, ok := loginBody["user"].(map[string]interface{})
	require.True(t, ok, "login response should include the user")
	userID, _ = user["id"].(string)
	require.NotEmpty(t, userID)
	return jwtToken, userID, email
}

func loginAdmin(t *testing.T) string {
	t.Helper()
	code, body := doJSON(t, "POST", "/v1/login", "", map[string]interface{}{
		"email": adminEmail, "password": adminPassword,
	})
	require.Equal(t, http.StatusOK, code, "admin login should succeed")
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// createProduct creates a listing as the given farmer and returns its ID.
func createProduct(t *testing.T, farmerToken, name string) string {
	t.Helper()
	code, body := doJSON(t, "POST", "/v1/product", farmerToken, map[string]interface{}{
		"name":                   name,
		"category":               "vegetables",
		"unit":                   "kg",
		"price_per_unit":         3.5,
		"minimum_order_quantity": 10,
		"available_quantity":     500,
	})
	require.Equal(t, http.StatusCreated, code, "product creation should succeed")
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestIntegration_Ping(t *testing.T) {
	requireReady(t)

	resp, err := http.Get(pingEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	bodyBytes, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, "pong", string(bodyBytes))
}

// TestIntegration_RequestLifecycle_Completed walks a contact request from
// creation to mutual confirmation, checking the notification emails along
// the way.
func TestIntegration_RequestLifecycle_Completed(t *testing.T) {
	requireReady(t)

	farmerToken, _, farmerEmail := registerAndLogin(t, "Farmer Fran", "farmer")
	userToken, _, userEmail := registerAndLogin(t, "Buyer Bob", "user")
	productID := createProduct(t, farmerToken, "Carrots")

	// Create the request
	code, createBody := doJSON(t, "POST", "/v1/request", userToken, map[string]interface{}{
		"product_id": productID, "requested_quantity": 25,
	})
	require.Equal(t, http.StatusCreated, code, "request creation should succeed: %+v", createBody)
	requestID, _ := createBody["id"].(string)
	require.NotEmpty(t, requestID)
	assert.Equal(t, "pending", createBody["status"])

	// Farmer is notified
	received := getEmailFromServiceAPI(t, "request_received", farmerEmail)
	assert.Contains(t, received["subject"], "New contact request")

	// A second identical request surfaces the existing one
	code, dupBody := doJSON(t, "POST", "/v1/request", userToken, map[string]interface{}{
		"product_id": productID, "requested_quantity": 25,
	})
	require.Equal(t, http.StatusConflict, code)
	existing, ok := dupBody["request"].(map[string]interface{})
	require.True(t, ok, "duplicate response should carry the existing request")
	assert.Equal(t, requestID, existing["id"])

	// Farmer accepts
	code, acceptBody := doJSON(t, "POST", "/v1/request/"+requestID+"/accept", farmerToken, nil)
	require.Equal(t, http.StatusOK, code, "accept should succeed: %+v", acceptBody)
	assert.Equal(t, "accepted", acceptBody["status"])

	accepted := getEmailFromServiceAPI(t, "request_accepted", userEmail)
	assert.Contains(t, accepted["subject"], "accepted")

	// Both parties confirm matching figures
	code, _ = doJSON(t, "POST", "/v1/request/"+requestID+"/confirm", userToken, map[string]interface{}{
		"did_buy": true, "final_quantity": 25, "final_price": 3.5,
	})
	require.Equal(t, http.StatusOK, code)

	code, confirmBody := doJSON(t, "POST", "/v1/request/"+requestID+"/confirm-farmer", farmerToken, map[string]interface{}{
		"did_buy": true, "final_quantity": 25, "final_price": 3.5,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", confirmBody["status"])

	// Final state visible to both parties
	code, getBody := doJSON(t, "GET", "/v1/request/"+requestID, userToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", getBody["status"])
	assert.Equal(t, true, getBody["user_confirmed"])
	assert.Equal(t, true, getBody["farmer_confirmed"])
}

// TestIntegration_RequestLifecycle_DisputeResolution drives mismatched
// confirmations into a dispute and resolves it as admin.
func TestIntegration_RequestLifecycle_DisputeResolution(t *testing.T) {
	requireReady(t)

	farmerToken, _, _ := registerAndLogin(t, "Farmer Flo", "farmer")
	userToken, _, userEmail := registerAndLogin(t, "Buyer Bea", "user")
	productID := createProduct(t, farmerToken, "Potatoes")

	code, createBody := doJSON(t, "POST", "/v1/request", userToken, map[string]interface{}{
		"product_id": productID, "requested_quantity": 40,
	})
	require.Equal(t, http.StatusCreated, code)
	requestID, _ := createBody["id"].(string)
	require.NotEmpty(t, requestID)

	code, _ = doJSON(t, "POST", "/v1/request/"+requestID+"/accept", farmerToken, nil)
	require.Equal(t, http.StatusOK, code)

	// Mismatched quantities dispute the request
	code, _ = doJSON(t, "POST", "/v1/request/"+requestID+"/confirm", userToken, map[string]interface{}{
		"did_buy": true, "final_quantity": 40, "final_price": 2.0,
	})
	require.Equal(t, http.StatusOK, code)
	code, disputeBody := doJSON(t, "POST", "/v1/request/"+requestID+"/confirm-farmer", farmerToken, map[string]interface{}{
		"did_buy": true, "final_quantity": 35, "final_price": 2.0,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disputed", disputeBody["status"])

	// Admin sees and resolves the dispute
	adminToken := loginAdmin(t)

	code, listBody := doJSON(t, "GET", "/v1/admin/request/disputed", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	disputed, ok := listBody["data"].([]interface{})
	require.True(t, ok)
	found := false
	for _, entry := range disputed {
		if m, ok := entry.(map[string]interface{}); ok && m["id"] == requestID {
			found = true
			break
		}
	}
	assert.True(t, found, "disputed request should appear in the admin list")

	code, resolveBody := doJSON(t, "POST", "/v1/admin/request/"+requestID+"/resolve", adminToken, map[string]interface{}{
		"final_status": "completed", "admin_note": "farmer figures confirmed by receipt",
	})
	require.Equal(t, http.StatusOK, code, "dispute resolution should succeed: %+v", resolveBody)
	assert.Equal(t, "completed", resolveBody["status"])

	resolvedEmail := getEmailFromServiceAPI(t, "dispute_resolved", userEmail)
	assert.Contains(t, resolvedEmail["subject"], "dispute")

	// A second resolution attempt conflicts
	code, _ = doJSON(t, "POST", "/v1/admin/request/"+requestID+"/resolve", adminToken, map[string]interface{}{
		"final_status": "rejected",
	})
	assert.Equal(t, http.StatusConflict, code)
}

// TestIntegration_AdminEndpointsRequireAdmin checks that ordinary users are
// rejected from the admin surface.
func TestIntegration_AdminEndpointsRequireAdmin(t *testing.T) {
	requireReady(t)

	userToken, _, _ := registerAndLogin(t, "Plain User", "user")

	code, _ := doJSON(t, "GET", "/v1/admin/request/disputed", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = doJSON(t, "POST", "/v1/admin/request/sweep", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

// seedTestData inserts the admin account the dispute tests log in with.
func seedTestData(mongoURI string) error {
	log.Println("Seeding test data...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB for seeding: %w", err)
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting seeding client: %v", err)
		}
	}()

	db := client.Database(testDbName)
	users := db.Collection("users")

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if _, err := users.DeleteMany(ctx, bson.M{"email": adminEmail}); err != nil {
		return fmt.Errorf("failed to remove stale admin user: %w", err)
	}
	now := time.Now().UTC()
	_, err = users.InsertOne(ctx, bson.M{
		"name":       "Test Admin",
		"email":      adminEmail,
		"password":   hash,
		"role":       "user",
		"is_admin":   true,
		"suspended":  false,
		"deleted":    false,
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Println("Successfully seeded admin user.")
	return nil
}

// cleanupTestData drops the integration database.
func cleanupTestData(mongoURI string) {
	log.Println("Cleaning up seeded test data...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Printf("Failed to connect to MongoDB for cleanup: %v", err)
		return
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting cleanup client: %v", err)
		}
	}()

	if err := client.Database(testDbName).Drop(ctx); err != nil {
		log.Printf("Failed to drop integration database: %v", err)
	}
}

// --- Service API Helpers ---

// getEmailFromServiceAPI polls the service API to retrieve mock email data.
func getEmailFromServiceAPI(t *testing.T, kind, emailAddr string) map[string]interface{} {
	t.Helper()
	var emailData map[string]interface{}
	found := false
	pollTimeout := time.After(10 * time.Second)
	pollTicker := time.NewTicker(500 * time.Millisecond)
	defer pollTicker.Stop()

	log.Printf("Polling Service API for email: Kind=%s, Email=%s", kind, emailAddr)

	for !found {
		select {
		case <-pollTimeout:
			t.Fatalf("Timeout waiting for email via Service API (Kind: %s, Email: %s)", kind, emailAddr)
		case <-pollTicker.C:
			respBody, resp, err := callServiceAPI(t, "getTestEmail", []interface{}{kind, emailAddr})
			if err != nil {
				log.Printf("Error calling getTestEmail Service API: %v", err)
				continue
			}
			if resp.StatusCode == http.StatusOK {
				if success, _ := respBody["success"].(bool); success {
					if payload, ok := respBody["data"].(map[string]interface{}); ok {
						emailData = payload
						found = true
					}
				}
			} else if resp.StatusCode != http.StatusNotFound {
				log.Printf("getTestEmail returned status %d. Polling...", resp.StatusCode)
			}
		}
	}
	require.True(t, found, "Failed to find email via Service API")
	return emailData
}

// callServiceAPI makes a request to the Service API.
func callServiceAPI(t *testing.T, method string, args []interface{}) (map[string]interface{}, *http.Response, error) {
	t.Helper()
	payload := map[string]interface{}{
		"method":    method,
		"arguments": args,
	}
	bodyBytes, err := json.Marshal(payload)
	require.NoError(t, err, "Failed to marshal service API payload")

	req, err := http.NewRequest("POST", testServiceApiURL+"/api", bytes.NewReader(bodyBytes))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)

	var respBodyBytes []byte
	if resp != nil && resp.Body != nil {
		respBodyBytes, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
	}

	if err != nil {
		return nil, resp, err
	}

	var respBody map[string]interface{}
	if unmarshalErr := json.Unmarshal(respBodyBytes, &respBody); unmarshalErr != nil {
		respBody = map[string]interface{}{"raw_body": string(respBodyBytes)}
	}
	return respBody, resp, nil
}
