//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/marathon/internal/middleware"
	"github.com/2beens/marathon/pkg"
)

// doRequest calls the service with the admin token and returns the status and body.
func doRequest(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set(middleware.ApiTokenHeader, testApiToken)
	if body != nil {
		req.Header.Set("Content-Type", pkg.ContentType.JSON)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBytes, nil
}

func (s *IntegrationTestSuite) requestJSON(method, path string, body any, wantStatus int, dest any) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, respBytes, err := doRequest(ctx, method, path, body)
	s.Require().NoError(err)
	s.Require().Equal(wantStatus, status, "%s %s: %s", method, path, respBytes)
	if dest != nil {
		s.Require().NoError(json.Unmarshal(respBytes, dest))
	}
}

// seedMarathon creates a marathon of numberOfDays days with the given exercises on each day.
func (s *IntegrationTestSuite) seedMarathon(id int64, title string, numberOfDays int, exercises ...string) {
	_, err := s.DB.Exec(`INSERT INTO marathon (id, title, number_of_days) VALUES ($1, $2, $3)`, id, title, numberOfDays)
	s.Require().NoError(err)

	for day := 1; day <= numberOfDays; day++ {
		var dayID int64
		err := s.DB.QueryRow(`
			INSERT INTO marathon_day (marathon_id, day_number, title)
			VALUES ($1, $2, $3)
			RETURNING id
		`, id, day, fmt.Sprintf("Day %d", day)).Scan(&dayID)
		s.Require().NoError(err)

		for position, exerciseID := range exercises {
			_, err := s.DB.Exec(`
				INSERT INTO marathon_day_exercise (day_id, exercise_id, position)
				VALUES ($1, $2, $3)
			`, dayID, exerciseID, position)
			s.Require().NoError(err)
		}
	}
}

func (s *IntegrationTestSuite) seedEnrollment(userID string, marathonID int64, startDate string) {
	_, err := s.DB.Exec(`
		INSERT INTO participant (user_id, email, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, userID+"@example.com", userID)
	s.Require().NoError(err)

	_, err = s.DB.Exec(`
		INSERT INTO enrollment (user_id, marathon_id, start_date)
		VALUES ($1, $2, $3::date)
	`, userID, marathonID, startDate)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) sentTriggers(subjectID string) []string {
	rows, err := s.DB.Query(`
		SELECT trigger_key FROM send_record
		WHERE subject_id = $1 AND status = 'sent'
		ORDER BY sent_at, trigger_key
	`, subjectID)
	s.Require().NoError(err)
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		s.Require().NoError(rows.Scan(&key))
		keys = append(keys, key)
	}
	s.Require().NoError(rows.Err())
	return keys
}
