package revlens

import "sort"

// Cluster groups the reviews assigned to one centroid.
type Cluster struct {
	ClusterID       int       `json:"cluster_id"`
	Size            int       `json:"size"`
	MemberReviewIDs []string  `json:"member_review_ids"`
	CentroidVector  []float64 `json:"centroid_vector"`
	TopKeywords     []string  `json:"top_keywords"`
}

// Representative is a cluster member close to its centroid.
type Representative struct {
	CleanedReview
	Distance float64 `json:"distance_to_centroid"`
}

// SelectRepresentatives builds the final clusters and, per cluster, up to
// sampleSize member reviews ordered by ascending distance to the centroid.
// Equal distances keep the original review order. Cluster keywords are the
// topKeywords highest-weighted vocabulary terms summed over member rows.
func SelectRepresentatives(features *FeatureMatrix, result *KMeansResult, cleaned []CleanedReview, sampleSize, topKeywords int) ([]Cluster, map[int][]Representative) {
	members := make([][]int, result.K)
	for row, label := range result.Labels {
		members[label] = append(members[label], row)
	}

	clusters := make([]Cluster, result.K)
	representatives := make(map[int][]Representative, result.K)
	for c := range result.K {
		centroid := result.Centroids.RawRowView(c)
		cluster := Cluster{
			ClusterID:       c,
			Size:            len(members[c]),
			MemberReviewIDs: make([]string, 0, len(members[c])),
			CentroidVector:  append([]float64(nil), centroid...),
			TopKeywords:     clusterKeywords(features, members[c], topKeywords),
		}
		reps := make([]Representative, 0, len(members[c]))
		for _, row := range members[c] {
			cluster.MemberReviewIDs = append(cluster.MemberReviewIDs, cleaned[row].ID)
			reps = append(reps, Representative{
				CleanedReview: cleaned[row],
				Distance:      cosineDistance(features.Values.RawRowView(row), centroid),
			})
		}
		sort.SliceStable(reps, func(i, j int) bool { return reps[i].Distance < reps[j].Distance })
		if sampleSize > 0 && len(reps) > sampleSize {
			reps = reps[:sampleSize]
		}
		clusters[c] = cluster
		representatives[c] = reps
	}
	return clusters, representatives
}

// clusterKeywords ranks vocabulary terms by their summed TF-IDF weight over
// the member rows; ties are broken lexicographically and zero-weight terms
// are never keywords.
func clusterKeywords(features *FeatureMatrix, rows []int, limit int) []string {
	if len(rows) == 0 || limit <= 0 {
		return nil
	}
	weights := make([]float64, len(features.Terms))
	for _, row := range rows {
		for col, v := range features.Values.RawRowView(row) {
			weights[col] += v
		}
	}
	order := make([]int, len(features.Terms))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		if weights[order[i]] != weights[order[j]] {
			return weights[order[i]] > weights[order[j]]
		}
		return features.Terms[order[i]] < features.Terms[order[j]]
	})

	var keywords []string
	for _, col := range order {
		if len(keywords) == limit || weights[col] == 0 {
			break
		}
		keywords = append(keywords, features.Terms[col])
	}
	return keywords
}
